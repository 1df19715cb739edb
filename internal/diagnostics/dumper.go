// Package diagnostics persists page snapshots captured when a browser harvest
// is blocked, comes back empty, or fails outright.
package diagnostics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"
)

// Artifact names written by the scholar harvester.
const (
	Blocked = "blocked"
	Last    = "last"
	Failure = "error"
)

// BlobStore persists one artifact and returns where it went.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Dumper writes paired HTML and PNG artifacts.
type Dumper struct {
	store  BlobStore
	prefix string
	logger *zap.Logger
}

// NewDumper returns a dumper writing below prefix in store.
func NewDumper(store BlobStore, prefix string, logger *zap.Logger) (*Dumper, error) {
	if store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dumper{store: store, prefix: strings.Trim(prefix, "/"), logger: logger}, nil
}

// Dump writes <name>.html and, when png is non-empty, <name>.png. Both writes are
// attempted even if the first one fails.
func (d *Dumper) Dump(ctx context.Context, name string, html string, png []byte) ([]string, error) {
	if d == nil {
		return nil, nil
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("artifact name is required")
	}
	var (
		written []string
		errs    []error
	)
	loc, err := d.store.PutObject(ctx, d.objectPath(name+".html"), "text/html; charset=utf-8", strings.NewReader(html))
	if err != nil {
		errs = append(errs, fmt.Errorf("dump %s.html: %w", name, err))
	} else {
		written = append(written, loc)
	}
	if len(png) > 0 {
		loc, err = d.store.PutObject(ctx, d.objectPath(name+".png"), "image/png", bytes.NewReader(png))
		if err != nil {
			errs = append(errs, fmt.Errorf("dump %s.png: %w", name, err))
		} else {
			written = append(written, loc)
		}
	}
	if len(written) > 0 {
		d.logger.Info("diagnostics written", zap.String("artifact", name), zap.Strings("locations", written))
	}
	return written, errors.Join(errs...)
}

func (d *Dumper) objectPath(file string) string {
	if d.prefix == "" {
		return file
	}
	return path.Join(d.prefix, file)
}
