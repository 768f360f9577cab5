package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kylesnowschwartz/roya-history/history"

	"golang.org/x/sync/errgroup"
)

var errNotJPEG = errors.New("not a JPEG image")

// imageUploader is satisfied by *history.Uploader.
type imageUploader interface {
	Upload(ctx context.Context, up history.Upload) (string, error)
}

// uploadOutcome is the result for one file.
type uploadOutcome struct {
	path string
	url  string
	err  error
}

// isJPEGName reports whether path has a .jpg or .jpeg extension.
func isJPEGName(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}

// uploadFiles uploads paths with at most limit requests in flight. Every
// file gets an outcome, in input order; one failure does not stop the rest.
func uploadFiles(ctx context.Context, up imageUploader, stage, comment string, paths []string, limit int) []uploadOutcome {
	out := make([]uploadOutcome, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range paths {
		g.Go(func() error {
			url, err := uploadFile(ctx, up, stage, comment, p)
			out[i] = uploadOutcome{path: p, url: url, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func uploadFile(ctx context.Context, up imageUploader, stage, comment, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if http.DetectContentType(data) != "image/jpeg" {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), errNotJPEG)
	}
	return up.Upload(ctx, history.Upload{Stage: stage, Comment: comment, JPEG: data})
}
