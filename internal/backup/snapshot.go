// Package backup writes compressed snapshots of the local data and keeps
// copies in Google Drive.
package backup

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
	"github.com/137-reciprocal/TaskGeek-sub001/internal/store"
)

// ErrUnsupportedVersion is returned for snapshots written by a newer
// release.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

const (
	filePrefix = "taskgeek-"
	fileSuffix = ".json.gz"
)

// FileName returns the canonical name of a snapshot taken at t.
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(model.CompactTimeLayout) + fileSuffix
}

// IsSnapshotName reports whether name looks like a snapshot file.
func IsSnapshotName(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix)
}

// Take dumps the store into a snapshot stamped at now.
func Take(ctx context.Context, st store.Store, now time.Time) (model.Snapshot, error) {
	snap, err := st.Dump(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("dumping store: %w", err)
	}
	snap.Version = model.SnapshotVersion
	snap.CreatedAt = now.UTC()
	return snap, nil
}

// Restore replaces the store contents with snap.
func Restore(ctx context.Context, st store.Store, snap model.Snapshot) error {
	if snap.Version > model.SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	if err := st.ReplaceAll(ctx, snap); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	return nil
}

// Write encodes snap as gzip-compressed JSON.
func Write(w io.Writer, snap model.Snapshot) error {
	zw := gzip.NewWriter(w)
	zw.Name = FileName(snap.CreatedAt)
	zw.ModTime = snap.CreatedAt

	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return zw.Close()
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (model.Snapshot, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("opening snapshot: %w", err)
	}
	defer zr.Close()

	var snap model.Snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version > model.SnapshotVersion {
		return model.Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	return snap, nil
}

// SaveFile writes snap into dir and returns the file path.
func SaveFile(dir string, snap model.Snapshot) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	path := filepath.Join(dir, FileName(snap.CreatedAt))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}
	if err := Write(f, snap); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing backup file: %w", err)
	}
	return path, nil
}

// LoadFile reads a snapshot file.
func LoadFile(path string) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("opening backup file: %w", err)
	}
	defer f.Close()
	return Read(f)
}
