// Package snapshot persists harvest results without ever clobbering a good snapshot
// with the output of a failed run.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/pubharvest/internal/harvest"
	"github.com/JakeFAU/pubharvest/internal/notify"
	"github.com/JakeFAU/pubharvest/internal/publication"
)

// Notifier announces freshly written snapshots.
type Notifier interface {
	Publish(ctx context.Context, event notify.SnapshotEvent) (string, error)
}

// Decision reports what Commit did.
type Decision struct {
	Written bool
	Path    string
	Count   int
	// Reason is set when the previous snapshot was preserved.
	Reason error
}

// Writer owns one snapshot file.
type Writer struct {
	path     string
	now      func() time.Time
	notifier Notifier
	runID    string
	logger   *zap.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// WithNotifier publishes an event after every successful write.
func WithNotifier(n Notifier, runID string) Option {
	return func(w *Writer) {
		w.notifier = n
		w.runID = runID
	}
}

// NewWriter returns a Writer for the snapshot at path.
func NewWriter(path string, logger *zap.Logger, opts ...Option) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{
		path:   path,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the snapshot location.
func (w *Writer) Path() string {
	return w.path
}

// Commit applies the write-or-preserve policy to res.
// Preserving never touches the filesystem.
func (w *Writer) Commit(ctx context.Context, res harvest.Result) (Decision, error) {
	if reason := preserveReason(res); reason != nil {
		w.logger.Info("keeping previous snapshot",
			zap.String("source", res.Source),
			zap.String("path", w.path),
			zap.String("reason", reason.Error()),
		)
		return Decision{Path: w.path, Reason: reason}, nil
	}
	if err := ctx.Err(); err != nil {
		return Decision{}, fmt.Errorf("context canceled: %w", err)
	}

	snap := publication.NewSnapshot(res.Source, res.Author, w.now(), res.Items)
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Decision{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := replaceFile(w.path, payload); err != nil {
		return Decision{}, err
	}
	w.logger.Info("snapshot written",
		zap.String("source", res.Source),
		zap.String("path", w.path),
		zap.Int("count", snap.Count),
	)
	w.announce(ctx, snap)
	return Decision{Written: true, Path: w.path, Count: snap.Count}, nil
}

func (w *Writer) announce(ctx context.Context, snap publication.Snapshot) {
	if w.notifier == nil {
		return
	}
	id, err := w.notifier.Publish(ctx, notify.SnapshotEvent{
		RunID:   w.runID,
		Source:  snap.Source,
		Path:    w.path,
		Count:   snap.Count,
		Updated: snap.Updated,
	})
	if err != nil {
		// The snapshot is already on disk; only the notification is lost.
		w.logger.Warn("snapshot notification failed", zap.Error(err))
		return
	}
	w.logger.Debug("snapshot notification published", zap.String("message_id", id))
}

func preserveReason(res harvest.Result) error {
	if res.Preserve != nil {
		return res.Preserve
	}
	if len(res.Items) == 0 && !res.ConfirmedEmpty {
		return fmt.Errorf("%w: harvest produced no records", harvest.ErrEmptyExtraction)
	}
	return nil
}

// replaceFile writes data next to target and renames it into place.
func replaceFile(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		closeErr := tmp.Close()
		removeErr := os.Remove(tmpName)
		return errors.Join(cause, closeErr, ignoreNotExist(removeErr))
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		return cleanup(fmt.Errorf("write temp snapshot: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync temp snapshot: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	// #nosec G302 -- the snapshot is served publicly by the static site.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot %s: %w", target, err)
	}
	return nil
}

func ignoreNotExist(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
