package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/model"
)

// ErrNoBackups is returned when the remote holds no snapshot.
var ErrNoBackups = errors.New("no backups found")

// RemoteFile describes a stored snapshot.
type RemoteFile struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Size      int64
}

// Remote is a place snapshots can be pushed to and pulled from.
type Remote interface {
	Upload(ctx context.Context, name string, r io.Reader) (RemoteFile, error)
	List(ctx context.Context) ([]RemoteFile, error)
	Download(ctx context.Context, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// Push uploads snap and prunes the remote to the newest keep snapshots.
// keep <= 0 disables pruning.
func Push(ctx context.Context, remote Remote, snap model.Snapshot, keep int) (RemoteFile, error) {
	var buf bytes.Buffer
	if err := Write(&buf, snap); err != nil {
		return RemoteFile{}, err
	}
	file, err := remote.Upload(ctx, FileName(snap.CreatedAt), &buf)
	if err != nil {
		return RemoteFile{}, fmt.Errorf("uploading snapshot: %w", err)
	}
	if keep > 0 {
		if _, err := Prune(ctx, remote, keep); err != nil {
			// The upload succeeded; a failed prune only leaves extra copies.
			log.Printf("pruning backups: %v", err)
		}
	}
	return file, nil
}

// Pull downloads a snapshot. An empty id selects the newest one.
func Pull(ctx context.Context, remote Remote, id string) (model.Snapshot, error) {
	if id == "" {
		files, err := Sorted(ctx, remote)
		if err != nil {
			return model.Snapshot{}, err
		}
		if len(files) == 0 {
			return model.Snapshot{}, ErrNoBackups
		}
		id = files[0].ID
	}

	rc, err := remote.Download(ctx, id)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("downloading snapshot %s: %w", id, err)
	}
	defer rc.Close()
	return Read(rc)
}

// Sorted lists snapshot files newest first, ignoring unrelated files.
func Sorted(ctx context.Context, remote Remote) ([]RemoteFile, error) {
	all, err := remote.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	files := all[:0]
	for _, f := range all {
		if IsSnapshotName(f.Name) {
			files = append(files, f)
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.After(files[j].CreatedAt)
		}
		return files[i].Name > files[j].Name
	})
	return files, nil
}

// Prune deletes all but the newest keep snapshots and returns how many
// were removed.
func Prune(ctx context.Context, remote Remote, keep int) (int, error) {
	files, err := Sorted(ctx, remote)
	if err != nil {
		return 0, err
	}
	if len(files) <= keep {
		return 0, nil
	}
	removed := 0
	for _, f := range files[keep:] {
		if err := remote.Delete(ctx, f.ID); err != nil {
			return removed, fmt.Errorf("deleting %s: %w", f.Name, err)
		}
		removed++
	}
	return removed, nil
}
