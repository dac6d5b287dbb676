// Package uploader pushes compiled-workflow artifacts to the content
// store: externally supplied inputs, the generated entrypoint, and the
// serialized spec. It implements the single "upload file to remote path"
// surface the compiler's outputs require.
package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/helixbio/helix/internal/compiler"
	"github.com/helixbio/helix/pkg/wfgraph"
)

// URIScheme prefixes every content-store destination.
const URIScheme = "helix://"

// ContentStore is the destination of uploads. Remote paths are
// store-rooted, without the helix:// scheme.
type ContentStore interface {
	UploadFile(ctx context.Context, localPath, remotePath string) error
	UploadBytes(ctx context.Context, data []byte, remotePath string) error
}

// Uploader pushes a compiled graph's artifacts to a ContentStore.
type Uploader struct {
	store  ContentStore
	logger *slog.Logger
}

// New creates an Uploader.
func New(store ContentStore, logger *slog.Logger) *Uploader {
	return &Uploader{store: store, logger: logger.With("component", "uploader")}
}

// UploadGraph uploads every RemoteFile in the graph, then the entrypoint
// source and spec document under the workflow's store prefix. All inputs
// must exist locally; a missing input aborts the whole upload.
func (u *Uploader) UploadGraph(ctx context.Context, g *wfgraph.Graph, spec []byte, entrypoint string) error {
	for _, rf := range g.RemoteFiles {
		if err := u.uploadLocal(ctx, rf.LocalPath, rf.RemotePath); err != nil {
			return fmt.Errorf("upload input %s: %w", rf.LocalPath, err)
		}
	}

	prefix := path.Join(compiler.StorePrefix, g.Name)

	entrypointRemote := path.Join(prefix, "entrypoint.py")
	if err := u.store.UploadBytes(ctx, []byte(entrypoint), entrypointRemote); err != nil {
		return fmt.Errorf("upload entrypoint: %w", err)
	}
	u.logger.Info("uploaded entrypoint",
		"remote", URIScheme+entrypointRemote, "size", humanize.Bytes(uint64(len(entrypoint))))

	specRemote := path.Join(prefix, "spec.json")
	if err := u.store.UploadBytes(ctx, spec, specRemote); err != nil {
		return fmt.Errorf("upload spec: %w", err)
	}
	u.logger.Info("uploaded spec",
		"remote", URIScheme+specRemote, "size", humanize.Bytes(uint64(len(spec))))

	return nil
}

func (u *Uploader) uploadLocal(ctx context.Context, localPath, remoteURI string) error {
	remotePath := TrimURI(remoteURI)

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return u.uploadDir(ctx, localPath, remotePath)
	}

	if err := u.store.UploadFile(ctx, localPath, remotePath); err != nil {
		return err
	}
	u.logger.Info("uploaded input",
		"local", localPath, "remote", URIScheme+remotePath, "size", humanize.Bytes(uint64(info.Size())))
	return nil
}

// uploadDir uploads every regular file under dir, preserving the relative
// layout below the remote path.
func (u *Uploader) uploadDir(ctx context.Context, dir, remotePath string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		local := path.Join(dir, entry.Name())
		remote := path.Join(remotePath, entry.Name())
		if entry.IsDir() {
			if err := u.uploadDir(ctx, local, remote); err != nil {
				return err
			}
			continue
		}
		if err := u.store.UploadFile(ctx, local, remote); err != nil {
			return err
		}
	}
	u.logger.Info("uploaded input directory", "local", dir, "remote", URIScheme+remotePath)
	return nil
}

// TrimURI strips the helix:// scheme from a content-store URI.
func TrimURI(uri string) string {
	return strings.TrimPrefix(uri, URIScheme)
}
