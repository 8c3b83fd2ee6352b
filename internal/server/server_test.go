package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantmind-br/docstranslate/internal/config"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/finetune"
	"github.com/quantmind-br/docstranslate/internal/mocks"
	"github.com/quantmind-br/docstranslate/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	parser     *mocks.MockRepositoryParser
	translator *mocks.MockTranslator
	store      finetune.Store
	handler    http.Handler
}

func newFixture(t *testing.T, validate bool) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		parser:     mocks.NewMockRepositoryParser(ctrl),
		translator: mocks.NewMockTranslator(ctrl),
		store:      finetune.NewMemoryStore(),
	}

	srv, err := server.New(server.Options{
		Config:     config.ServerConfig{Host: "127.0.0.1", Port: 0, ValidateRequests: validate},
		Parser:     f.parser,
		Translator: f.translator,
		Store:      f.store,
	})
	require.NoError(t, err)
	f.handler = srv.Handler()
	return f
}

func do(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Detail
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := server.New(server.Options{})
	assert.Error(t, err)
}

func TestIndexAndHealthz(t *testing.T) {
	f := newFixture(t, true)

	w := do(f.handler, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"Hello":"Something"}`, w.Body.String())

	w = do(f.handler, http.MethodGet, "/v1/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"up":true}`, w.Body.String())
}

func TestParse_Success(t *testing.T) {
	f := newFixture(t, true)

	root := domain.NewDirectoryNode(domain.RootNodeName)
	_, err := root.AddChild(domain.NewFileNode("README.md"))
	require.NoError(t, err)
	doc := &domain.MarkdownDocument{Title: "README.md", Content: "# Hi"}

	f.parser.EXPECT().
		Parse(gomock.Any(), "https://github.com/acme/docs").
		Return(&domain.ParseResult{
			Status:  "success",
			Message: "Repository parsed successfully",
			Details: domain.ParseDetails{IdentifierDir: "docs-master", Owner: "acme", Repo: "docs", Branch: "master", TotalMDFiles: 1},
			Content: domain.NewArticleContent(doc),
			Files:   root,
		}, nil)

	w := do(f.handler, http.MethodGet, "/parse?repoUrl=https://github.com/acme/docs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"status": "success",
		"message": "Repository parsed successfully",
		"details": {"identifier_dir": "docs-master", "owner": "acme", "repo": "docs", "branch": "master", "total_md_files": 1},
		"content": {"title": "README.md", "content": "# Hi"},
		"files": {"name": "root", "type": "directory", "children": [{"name": "README.md", "type": "file"}]}
	}`, w.Body.String())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			"invalid url",
			domain.Classify(domain.NewInvalidInputError("x", "Invalid GitHub URL. Format: https://github.com/owner/repo")),
			http.StatusBadRequest,
			"Invalid GitHub URL. Format: https://github.com/owner/repo",
		},
		{"not found", domain.Classify(domain.NewNotFoundError("u", 404)), http.StatusNotFound, "Repository not found"},
		{"internal", domain.Classify(domain.NewCorruptArchiveError("a.zip", io.ErrUnexpectedEOF)), http.StatusInternalServerError, "corrupt archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.parser.EXPECT().Parse(gomock.Any(), "x").Return(nil, tt.err)

			w := do(f.handler, http.MethodGet, "/parse?repoUrl=x", "", nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, detail(t, w), tt.wantDetail)
		})
	}
}

func TestParse_MissingRepoURL(t *testing.T) {
	t.Run("rejected by validator", func(t *testing.T) {
		f := newFixture(t, true)
		w := do(f.handler, http.MethodGet, "/parse", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, detail(t, w), "repoUrl")
	})

	t.Run("handed to parser without validator", func(t *testing.T) {
		f := newFixture(t, false)
		f.parser.EXPECT().Parse(gomock.Any(), "").
			Return(nil, domain.Classify(domain.NewInvalidInputError("", "Invalid GitHub URL. Format: https://github.com/owner/repo")))

		w := do(f.handler, http.MethodGet, "/parse", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTranslate(t *testing.T) {
	f := newFixture(t, true)

	f.translator.EXPECT().
		Translate(gomock.Any(), domain.TranslationRequest{
			Token:        "alice",
			LanguageFrom: "English",
			LanguageTo:   "French",
			Source:       "# Hello",
		}).
		Return("# Bonjour", nil)

	w := do(f.handler, http.MethodPost, "/translate?language_to=French", "# Hello",
		map[string]string{"Authorization": "Bearer alice", "Content-Type": "text/markdown"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"# Bonjour"}`, w.Body.String())
}

func TestTranslate_Defaults(t *testing.T) {
	f := newFixture(t, true)

	f.translator.EXPECT().
		Translate(gomock.Any(), domain.TranslationRequest{LanguageFrom: "English", LanguageTo: "Hindi", Source: "x"}).
		Return("y", nil)

	w := do(f.handler, http.MethodPost, "/translate", "x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTranslate_InvalidUTF8(t *testing.T) {
	f := newFixture(t, true)

	w := do(f.handler, http.MethodPost, "/translate", "\xff\xfe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranslate_ProviderUnavailable(t *testing.T) {
	f := newFixture(t, true)
	f.translator.EXPECT().Translate(gomock.Any(), gomock.Any()).Return("", domain.ErrLLMCircuitOpen)

	w := do(f.handler, http.MethodPost, "/translate", "x", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, domain.ErrLLMCircuitOpen.Error(), detail(t, w))
}

func TestFinetune(t *testing.T) {
	f := newFixture(t, true)
	headers := map[string]string{"Authorization": "Bearer bob", "Content-Type": "application/json"}

	w := do(f.handler, http.MethodPost, "/finetune?language_to=French",
		`{"source_text":"cat","output_text":"chat"}`, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"English":{"French":[{"source_text":"cat","output_text":"chat"}]}}`, w.Body.String())

	w = do(f.handler, http.MethodPost, "/finetune",
		`{"source_text":"dog","output_text":"कुत्ता"}`, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"English": {
			"French": [{"source_text":"cat","output_text":"chat"}],
			"Hindi": [{"source_text":"dog","output_text":"कुत्ता"}]
		}
	}`, w.Body.String())

	examples, err := f.store.Examples(context.Background(), "bob", "English", "Hindi")
	require.NoError(t, err)
	assert.Len(t, examples, 1)
}

func TestFinetune_MissingToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"empty token", "Bearer "},
		{"not bearer", "Basic abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			headers := map[string]string{"Content-Type": "application/json"}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}

			w := do(f.handler, http.MethodPost, "/finetune", `{"source_text":"a","output_text":"b"}`, headers)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "missing authorization bearer token", detail(t, w))
		})
	}
}

func TestFinetune_RejectsControlSeparatorInLanguage(t *testing.T) {
	f := newFixture(t, true)
	headers := map[string]string{"Authorization": "Bearer bob", "Content-Type": "application/json"}

	w := do(f.handler, http.MethodPost, "/finetune?language_from=a%1Fb",
		`{"source_text":"cat","output_text":"chat"}`, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, detail(t, w), "invalid language name")

	user, err := f.store.User(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, user)
}

func TestFinetune_InvalidBody(t *testing.T) {
	headers := map[string]string{"Authorization": "Bearer bob", "Content-Type": "application/json"}

	t.Run("validator", func(t *testing.T) {
		f := newFixture(t, true)
		w := do(f.handler, http.MethodPost, "/finetune", `{"source_text":"a"}`, headers)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("handler", func(t *testing.T) {
		f := newFixture(t, false)
		w := do(f.handler, http.MethodPost, "/finetune", `{"source_text":"a"}`, headers)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, detail(t, w), "output_text")

		w = do(f.handler, http.MethodPost, "/finetune", `not json`, headers)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCORS(t *testing.T) {
	f := newFixture(t, true)

	t.Run("preflight", func(t *testing.T) {
		w := do(f.handler, http.MethodOptions, "/translate", "", map[string]string{
			"Origin":                         "https://app.example.com",
			"Access-Control-Request-Method":  "POST",
			"Access-Control-Request-Headers": "authorization, content-type",
		})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Equal(t, "authorization, content-type", w.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("simple request", func(t *testing.T) {
		w := do(f.handler, http.MethodGet, "/v1/healthz", "", map[string]string{"Origin": "http://localhost:3000"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origin", func(t *testing.T) {
		w := do(f.handler, http.MethodGet, "/v1/healthz", "", nil)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestID(t *testing.T) {
	f := newFixture(t, true)

	w := do(f.handler, http.MethodGet, "/v1/healthz", "", map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = do(f.handler, http.MethodGet, "/v1/healthz", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, true)

	w := do(f.handler, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", detail(t, w))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv, err := server.New(server.Options{
		Config:     config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second},
		Parser:     mocks.NewMockRepositoryParser(ctrl),
		Translator: mocks.NewMockTranslator(ctrl),
		Store:      finetune.NewMemoryStore(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
