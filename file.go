package seedfields

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// backupSuffix is appended to the seed path to name its backup.
const backupSuffix string = ".bak"

// ReadSeed reads the seed file at path.
func ReadSeed(fs afero.Fs, path string) (string, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("read seed file: %w", err)
	}
	return string(content), nil
}

// WriteSeed replaces the seed file at path with content.
//
// content is written to a temporary file next to path, which is then
// renamed over path, so the seed file is either fully replaced or left
// as it was. The file mode of path is kept.
//
// If backup = true, the previous content is copied to <path>.bak first
// and the backup path is returned.
func WriteSeed(fs afero.Fs, path string, content string, backup bool) (string, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat seed file: %w", err)
	}

	var backupPath string
	if backup {
		previous, err := afero.ReadFile(fs, path)
		if err != nil {
			return "", fmt.Errorf("read seed file: %w", err)
		}
		backupPath = path + backupSuffix
		if err := afero.WriteFile(fs, backupPath, previous, info.Mode().Perm()); err != nil {
			return "", fmt.Errorf("write backup: %w", err)
		}
	}

	file, err := afero.TempFile(fs, filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return backupPath, fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := file.Name()
	if err := writeAndClose(file, content); err != nil {
		fs.Remove(tmpPath)
		return backupPath, fmt.Errorf("write temporary file: %w", err)
	}
	if err := fs.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		fs.Remove(tmpPath)
		return backupPath, fmt.Errorf("chmod temporary file: %w", err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		fs.Remove(tmpPath)
		return backupPath, fmt.Errorf("replace seed file: %w", err)
	}
	return backupPath, nil
}

func writeAndClose(file afero.File, content string) error {
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
