package processor

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tiff2bit/pkg/imgutil"
)

// Discover expands paths into an ordered source list. Files are kept as
// given; directories are walked for .tif/.tiff files, sorted per directory,
// skipping Output_2Bit folders and outputDir itself. Duplicates are dropped.
func Discover(paths []string, outputDir string) ([]string, error) {
	var absOut string
	if outputDir != "" {
		if abs, err := filepath.Abs(outputDir); err == nil {
			absOut = abs
		}
	}

	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, p)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			// Missing inputs still become jobs so they are reported per file.
			add(root)
			continue
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		var files []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && strings.EqualFold(d.Name(), OutputFolderName) {
					return filepath.SkipDir
				}
				if absOut != "" {
					if abs, err := filepath.Abs(path); err == nil && isWithin(abs, absOut) {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if d.Type().IsRegular() && imgutil.HasTIFFExt(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}
