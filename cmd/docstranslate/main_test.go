package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/quantmind-br/docstranslate/internal/config"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleTree(t *testing.T) *domain.FileNode {
	t.Helper()
	root := domain.NewDirectoryNode(domain.RootNodeName)
	_, err := root.AddChild(domain.NewFileNode("README.md"))
	require.NoError(t, err)
	docs, err := root.AddChild(domain.NewDirectoryNode("docs"))
	require.NoError(t, err)
	_, err = docs.AddChild(domain.NewFileNode("intro.md"))
	require.NoError(t, err)
	return root
}

func TestDocumentPaths(t *testing.T) {
	assert.Equal(t, []string{"README.md", "docs/intro.md"}, documentPaths(sampleTree(t)))
	assert.Empty(t, documentPaths(nil))
	assert.Empty(t, documentPaths(domain.NewDirectoryNode(domain.RootNodeName)))
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, &domain.ParseResult{
		Details: domain.ParseDetails{IdentifierDir: "docs-master", Owner: "acme", Repo: "docs", Branch: "master", TotalMDFiles: 2},
		Files:   sampleTree(t),
	})

	out := buf.String()
	assert.Contains(t, out, "acme/docs@master: 2 markdown file(s) in docs-master")
	assert.Contains(t, out, "docs/intro.md")
	assert.Contains(t, out, "README.md")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "********", maskSecret("short"))
	assert.Equal(t, "sk-a****wxyz", maskSecret("sk-abcdefghijklmnopqrstuvwxyz"))
}

func TestMarshalConfig_MasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "together-0123456789"
	cfg.FineTune.Redis.Password = "hunter2"

	out, err := marshalConfig(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "together-0123456789")
	assert.NotContains(t, string(out), "hunter2")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Contains(t, decoded, "server")
	assert.Contains(t, decoded, "finetune")

	// the caller's config is untouched
	assert.Equal(t, "together-0123456789", cfg.LLM.APIKey)
}

func TestParseCommand(t *testing.T) {
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for name, content := range map[string]string{
		"docs-master/README.md":     "# Docs",
		"docs-master/guide/a.md":    "A",
		"docs-master/src/main.go":   "package main",
		"docs-master/.github/ci.md": "hidden",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/acme/docs/archive/refs/heads/master.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(archive.Bytes())
	}))
	defer server.Close()

	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DOCSTRANSLATE_ARCHIVE_BASE_URL", server.URL)
	t.Setenv("DOCSTRANSLATE_LOGGING_LEVEL", "error")

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"parse", "https://github.com/acme/docs", "--format", "json", "--no-progress"})
		require.NoError(t, rootCmd.Execute())

		var result domain.ParseResult
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.Equal(t, "success", result.Status)
		assert.Equal(t, 2, result.Details.TotalMDFiles)
		assert.Equal(t, "docs-master", result.Details.IdentifierDir)
	})

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"parse", "https://github.com/acme/docs", "--format", "table", "--no-progress"})
		require.NoError(t, rootCmd.Execute())
		assert.Contains(t, out.String(), "guide/a.md")
	})

	t.Run("not found", func(t *testing.T) {
		rootCmd.SetArgs([]string{"parse", "https://github.com/acme/missing", "--format", "json", "--no-progress"})
		err := rootCmd.Execute()
		require.Error(t, err)
		assert.Equal(t, "Repository not found", err.Error())
	})

	t.Run("bad format", func(t *testing.T) {
		rootCmd.SetArgs([]string{"parse", "https://github.com/acme/docs", "--format", "xml", "--no-progress"})
		assert.Error(t, rootCmd.Execute())
	})
}

func TestConfigInitCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "init"})
	require.NoError(t, rootCmd.Execute())

	path := filepath.Join(home, ".docstranslate", "config.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "finetune:")

	// second run refuses to overwrite
	rootCmd.SetArgs([]string{"config", "init"})
	assert.Error(t, rootCmd.Execute())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version", "--json"})
	require.NoError(t, rootCmd.Execute())

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "dev", info["version"])
}
