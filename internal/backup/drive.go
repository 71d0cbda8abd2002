package backup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// AppDataFolder is the hidden per-application Drive folder.
const AppDataFolder = "appDataFolder"

// apiTimeout bounds metadata calls. Transfers use the caller's context.
const apiTimeout = 30 * time.Second

// Drive stores snapshots in a Google Drive folder.
type Drive struct {
	svc    *drive.Service
	folder string
}

var _ Remote = (*Drive)(nil)

// NewDrive creates a Drive remote using an authorized HTTP client. An
// empty folder selects the application data folder.
func NewDrive(ctx context.Context, httpClient *http.Client, folder string, opts ...option.ClientOption) (*Drive, error) {
	if folder == "" {
		folder = AppDataFolder
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Drive{svc: svc, folder: folder}, nil
}

func (d *Drive) space() string {
	if d.folder == AppDataFolder {
		return AppDataFolder
	}
	return "drive"
}

// Upload creates a new file in the backup folder.
func (d *Drive) Upload(ctx context.Context, name string, r io.Reader) (RemoteFile, error) {
	meta := &drive.File{
		Name:     name,
		Parents:  []string{d.folder},
		MimeType: "application/gzip",
	}
	f, err := d.svc.Files.Create(meta).
		Media(r).
		Fields("id, name, createdTime, size").
		Context(ctx).
		Do()
	if err != nil {
		return RemoteFile{}, err
	}
	return toRemoteFile(f), nil
}

// List returns every file in the backup folder.
func (d *Drive) List(ctx context.Context) ([]RemoteFile, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	q := fmt.Sprintf("'%s' in parents and trashed = false", d.folder)
	var out []RemoteFile
	err := d.svc.Files.List().
		Spaces(d.space()).
		Q(q).
		Fields("nextPageToken, files(id, name, createdTime, size)").
		OrderBy("createdTime desc").
		PageSize(100).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				out = append(out, toRemoteFile(f))
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Download streams the content of a file.
func (d *Drive) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := d.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Delete removes a file permanently.
func (d *Drive) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()
	return d.svc.Files.Delete(id).Context(ctx).Do()
}

func toRemoteFile(f *drive.File) RemoteFile {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	return RemoteFile{
		ID:        f.Id,
		Name:      f.Name,
		CreatedAt: created,
		Size:      f.Size,
	}
}
