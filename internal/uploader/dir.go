package uploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirStore is a ContentStore rooted at a local directory. It backs the
// --upload-dir development mode and the uploader tests.
type DirStore struct {
	Root string
}

// UploadFile copies a local file into the store directory.
func (d *DirStore) UploadFile(_ context.Context, localPath, remotePath string) error {
	dst, err := d.destPath(remotePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// UploadBytes writes an in-memory artifact into the store directory.
func (d *DirStore) UploadBytes(_ context.Context, data []byte, remotePath string) error {
	dst, err := d.destPath(remotePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func (d *DirStore) destPath(remotePath string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimLeft(remotePath, "/"))
	if clean == "/" {
		return "", fmt.Errorf("empty remote path")
	}
	return filepath.Join(d.Root, clean), nil
}
