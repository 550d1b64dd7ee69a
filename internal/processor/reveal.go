package processor

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

var openFolder = func(dir string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", dir)
	case "windows":
		cmd = exec.Command("explorer", dir)
	default:
		cmd = exec.Command("xdg-open", dir)
	}
	return cmd.Start()
}

// RevealFolders opens each folder in the platform file manager.
func RevealFolders(folders []string) error {
	var errs []error
	for _, dir := range folders {
		if err := openFolder(dir); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}
