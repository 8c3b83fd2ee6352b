package repo_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArchiveServer(t *testing.T, wantPath string, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestArchiveFetcher_Fetch(t *testing.T) {
	archive := buildZip(t, archiveEntry{Name: "docs-main/README.md", Content: "# Docs"})
	server := newArchiveServer(t, "/octo/docs/archive/refs/heads/main.zip", archive)

	var progress bytes.Buffer
	fetcher := repo.NewArchiveFetcher(repo.ArchiveFetcherOptions{
		HTTPClient: server.Client(),
		Naming:     repo.NewGitHubNaming(server.URL, repo.FormatZip),
		Progress:   &progress,
	})

	destDir := t.TempDir()
	id := domain.RepositoryIdentity{Owner: "octo", Repo: "docs", Branch: "main"}

	path, err := fetcher.Fetch(context.Background(), id, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "docs.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, archive, data)
	assert.Equal(t, archive, progress.Bytes())
}

func TestArchiveFetcher_NotFound(t *testing.T) {
	server := newArchiveServer(t, "/octo/docs/archive/refs/heads/main.zip", nil)

	fetcher := repo.NewArchiveFetcher(repo.ArchiveFetcherOptions{
		HTTPClient: server.Client(),
		Naming:     repo.NewGitHubNaming(server.URL, ""),
	})

	destDir := t.TempDir()
	id := domain.RepositoryIdentity{Owner: "octo", Repo: "missing", Branch: "master"}

	_, err := fetcher.Fetch(context.Background(), id, destDir)
	require.Error(t, err)

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
	assert.Equal(t, http.StatusNotFound, domain.HTTPStatus(err))
	assert.Equal(t, "Repository not found", domain.PublicMessage(err))

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no archive file is written for a failed download")
}

func TestArchiveFetcher_NonSuccessStatusIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := repo.NewArchiveFetcher(repo.ArchiveFetcherOptions{
		HTTPClient: server.Client(),
		Naming:     repo.NewGitHubNaming(server.URL, ""),
	})

	_, err := fetcher.Fetch(context.Background(), domain.RepositoryIdentity{Owner: "o", Repo: "r", Branch: "b"}, t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArchiveFetcher_SingleAttempt(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := repo.NewArchiveFetcher(repo.ArchiveFetcherOptions{
		HTTPClient: server.Client(),
		Naming:     repo.NewGitHubNaming(server.URL, ""),
	})

	_, err := fetcher.Fetch(context.Background(), domain.RepositoryIdentity{Owner: "o", Repo: "r", Branch: "b"}, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestArchiveFetcher_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	fetcher := repo.NewArchiveFetcher(repo.ArchiveFetcherOptions{
		Naming: repo.NewGitHubNaming(url, ""),
	})

	_, err := fetcher.Fetch(context.Background(), domain.RepositoryIdentity{Owner: "o", Repo: "r", Branch: "b"}, t.TempDir())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, http.StatusInternalServerError, domain.HTTPStatus(err))
}

func TestArchiveFetcher_MaxSize(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 2048)
	server := newArchiveServer(t, "/o/r/archive/refs/heads/b.zip", body)

	t.Run("over limit", func(t *testing.T) {
		fetcher := repo.NewArchiveFetcher(repo.ArchiveFetcherOptions{
			HTTPClient: server.Client(),
			Naming:     repo.NewGitHubNaming(server.URL, ""),
			MaxSize:    1024,
		})
		_, err := fetcher.Fetch(context.Background(), domain.RepositoryIdentity{Owner: "o", Repo: "r", Branch: "b"}, t.TempDir())
		assert.ErrorIs(t, err, domain.ErrArchiveTooLarge)
	})

	t.Run("exact fit", func(t *testing.T) {
		fetcher := repo.NewArchiveFetcher(repo.ArchiveFetcherOptions{
			HTTPClient: server.Client(),
			Naming:     repo.NewGitHubNaming(server.URL, ""),
			MaxSize:    2048,
		})
		_, err := fetcher.Fetch(context.Background(), domain.RepositoryIdentity{Owner: "o", Repo: "r", Branch: "b"}, t.TempDir())
		assert.NoError(t, err)
	})
}

func TestArchiveFetcher_ContextCanceled(t *testing.T) {
	server := newArchiveServer(t, "/o/r/archive/refs/heads/b.zip", []byte("zip"))

	fetcher := repo.NewArchiveFetcher(repo.ArchiveFetcherOptions{
		HTTPClient: server.Client(),
		Naming:     repo.NewGitHubNaming(server.URL, ""),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, domain.RepositoryIdentity{Owner: "o", Repo: "r", Branch: "b"}, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
