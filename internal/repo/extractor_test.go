package repo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/repo"
	"github.com/quantmind-br/docstranslate/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Zip(t *testing.T) {
	destDir := t.TempDir()
	archivePath := filepath.Join(destDir, "docs.zip")
	data := buildZip(t,
		archiveEntry{Name: "docs-main/"},
		archiveEntry{Name: "docs-main/README.md", Content: "# Readme"},
		archiveEntry{Name: "docs-main/guides/intro.md", Content: "intro"},
	)
	require.NoError(t, os.WriteFile(archivePath, data, 0644))

	extractor := repo.NewExtractor(utils.NewNopLogger())
	require.NoError(t, extractor.Extract(archivePath, destDir))

	content, err := os.ReadFile(filepath.Join(destDir, "docs-main", "guides", "intro.md"))
	require.NoError(t, err)
	assert.Equal(t, "intro", string(content))

	_, err = os.Stat(archivePath)
	assert.True(t, os.IsNotExist(err), "archive is removed after extraction")
}

func TestExtractor_TarGz(t *testing.T) {
	destDir := t.TempDir()
	archivePath := filepath.Join(destDir, "docs.tar.gz")
	data := buildTarGz(t,
		archiveEntry{Name: "docs-main/"},
		archiveEntry{Name: "docs-main/docs/readme.md", Content: "# Hello"},
	)
	require.NoError(t, os.WriteFile(archivePath, data, 0644))

	require.NoError(t, repo.NewExtractor(nil).Extract(archivePath, destDir))

	content, err := os.ReadFile(filepath.Join(destDir, "docs-main", "docs", "readme.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Hello", string(content))

	_, err = os.Stat(archivePath)
	assert.True(t, os.IsNotExist(err))
}

func TestExtractor_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"zip", "docs.zip"},
		{"tar.gz", "docs.tar.gz"},
		{"unknown extension", "docs.rar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			destDir := t.TempDir()
			archivePath := filepath.Join(destDir, tt.file)
			require.NoError(t, os.WriteFile(archivePath, []byte("this is not an archive"), 0644))

			err := repo.NewExtractor(nil).Extract(archivePath, destDir)
			require.Error(t, err)

			var corrupt *domain.CorruptArchiveError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, archivePath, corrupt.Path)
			assert.ErrorIs(t, err, domain.ErrCorruptArchive)
			assert.Equal(t, 500, domain.HTTPStatus(err))
		})
	}
}

func TestExtractor_RejectsPathTraversal(t *testing.T) {
	parent := t.TempDir()
	destDir := filepath.Join(parent, "work")
	require.NoError(t, os.MkdirAll(destDir, 0755))

	archivePath := filepath.Join(destDir, "evil.zip")
	data := buildZip(t,
		archiveEntry{Name: "../escaped.md", Content: "nope"},
		archiveEntry{Name: "evil-main/ok.md", Content: "ok"},
	)
	require.NoError(t, os.WriteFile(archivePath, data, 0644))

	require.NoError(t, repo.NewExtractor(utils.NewNopLogger()).Extract(archivePath, destDir))

	_, err := os.Stat(filepath.Join(parent, "escaped.md"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(destDir, "evil-main", "ok.md"))
	assert.NoError(t, err)
}
