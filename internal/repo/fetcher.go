package repo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/utils"
	"github.com/quantmind-br/docstranslate/pkg/version"
)

// ArchiveFetcher downloads branch snapshot archives
type ArchiveFetcher struct {
	httpClient *http.Client
	naming     NamingStrategy
	logger     *utils.Logger
	maxSize    int64
	progress   io.Writer
}

// ArchiveFetcherOptions contains options for creating an ArchiveFetcher
type ArchiveFetcherOptions struct {
	HTTPClient *http.Client
	Naming     NamingStrategy
	Logger     *utils.Logger
	// MaxSize aborts downloads larger than this many bytes. Zero disables the limit.
	MaxSize int64
	// Progress receives a copy of every downloaded byte
	Progress io.Writer
}

// NewArchiveFetcher creates a new archive fetcher
func NewArchiveFetcher(opts ArchiveFetcherOptions) *ArchiveFetcher {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	naming := opts.Naming
	if naming == nil {
		naming = NewGitHubNaming("", "")
	}
	return &ArchiveFetcher{
		httpClient: client,
		naming:     naming,
		logger:     opts.Logger,
		maxSize:    opts.MaxSize,
		progress:   opts.Progress,
	}
}

// Naming returns the naming strategy used to build download URLs
func (f *ArchiveFetcher) Naming() NamingStrategy {
	return f.naming
}

// Fetch downloads the snapshot of id into destDir and returns the archive path.
// A single attempt is made; any non-200 response is a NotFoundError.
func (f *ArchiveFetcher) Fetch(ctx context.Context, id domain.RepositoryIdentity, destDir string) (string, error) {
	archiveURL := f.naming.ArchiveURL(id)
	if f.logger != nil {
		f.logger.Debug().Str("archive_url", archiveURL).Msg("Downloading archive")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.NewNotFoundError(archiveURL, resp.StatusCode)
	}

	archivePath := filepath.Join(destDir, f.naming.ArchiveFileName(id))
	written, err := f.save(resp.Body, archivePath)
	if err != nil {
		return "", err
	}

	if f.logger != nil {
		f.logger.Debug().
			Str("path", archivePath).
			Int64("bytes", written).
			Msg("Archive downloaded")
	}
	return archivePath, nil
}

func (f *ArchiveFetcher) save(body io.Reader, archivePath string) (int64, error) {
	file, err := os.Create(archivePath)
	if err != nil {
		return 0, fmt.Errorf("create archive file failed: %w", err)
	}
	defer file.Close()

	var dst io.Writer = file
	if f.progress != nil {
		dst = io.MultiWriter(file, f.progress)
	}

	src := body
	if f.maxSize > 0 {
		// one extra byte tells an exact fit from an overflow
		src = io.LimitReader(body, f.maxSize+1)
	}

	written, err := io.Copy(dst, src)
	if err != nil {
		return written, fmt.Errorf("download failed: %w", err)
	}
	if f.maxSize > 0 && written > f.maxSize {
		return written, fmt.Errorf("%w: limit is %d bytes", domain.ErrArchiveTooLarge, f.maxSize)
	}

	if err := file.Close(); err != nil {
		return written, fmt.Errorf("close archive file failed: %w", err)
	}
	return written, nil
}
