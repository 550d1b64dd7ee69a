package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// planJobs assigns a destination to every source in order.
func planJobs(sources []string, outputDir string) []Job {
	jobs := make([]Job, 0, len(sources))
	for i, src := range sources {
		dest, folder := resolveDestination(src, outputDir)
		jobs = append(jobs, Job{Index: i, Source: src, Destination: dest, Folder: folder})
	}
	return jobs
}

// resolveDestination places the output in outputDir when set, otherwise in
// an Output_2Bit folder beside the source. Sources sharing a basename
// overwrite each other in an explicit output folder.
func resolveDestination(source, outputDir string) (string, string) {
	folder := outputDir
	if folder == "" {
		folder = filepath.Join(filepath.Dir(source), OutputFolderName)
	}
	return filepath.Join(folder, filepath.Base(source)), folder
}

// checkDistinct refuses a destination that is the source itself.
func checkDistinct(source, dest string) error {
	a, errA := filepath.Abs(source)
	b, errB := filepath.Abs(dest)
	if errA == nil && errB == nil && filepath.Clean(a) == filepath.Clean(b) {
		return fmt.Errorf("%w: %s", ErrSameFile, source)
	}
	si, err := os.Stat(source)
	if err != nil {
		return nil
	}
	if di, err := os.Stat(dest); err == nil && os.SameFile(si, di) {
		return fmt.Errorf("%w: %s", ErrSameFile, source)
	}
	return nil
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
