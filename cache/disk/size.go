package disk

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

type storedFile struct {
	path    string
	size    int64
	modTime time.Time
}

// walkStored lists the regular files under root, skipping in-progress temp files.
func walkStored(root string) ([]storedFile, int64, error) {
	var files []storedFile
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ok, _ := filepath.Match(tempPattern, d.Name()); ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		files = append(files, storedFile{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	return files, total, err
}

func dirSize(root string) (int64, error) {
	_, total, err := walkStored(root)
	return total, err
}

// pruneDir removes the oldest files under root until at most targetBytes remain.
func pruneDir(root string, targetBytes int64) (freed, remaining int64, err error) {
	files, total, err := walkStored(root)
	if err != nil {
		return 0, 0, err
	}
	remaining = total
	if remaining <= targetBytes {
		return 0, remaining, nil
	}

	slices.SortFunc(files, func(a, b storedFile) int {
		if c := a.modTime.Compare(b.modTime); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})

	for _, f := range files {
		if remaining <= targetBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return freed, remaining, err
		}
		remaining -= f.size
		freed += f.size
	}
	return freed, remaining, nil
}
