package main

import "tiff2bit/cmd"

func main() {
	cmd.Execute()
}
