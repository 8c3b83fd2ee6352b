package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantmind-br/docstranslate/internal/config"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/repo"
	"github.com/quantmind-br/docstranslate/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrName = "github.com/quantmind-br/docstranslate/internal/app"

const (
	StatusSuccess  = "success"
	MessageSuccess = "Repository parsed successfully"
)

// Indexer runs the parse pipeline: URL parser, archive fetcher, extractor and
// tree builder. Every request works in its own temporary directory, which is
// removed before Parse returns unless KeepExtracted is set.
type Indexer struct {
	fetcher          *repo.ArchiveFetcher
	extractor        *repo.Extractor
	naming           repo.NamingStrategy
	logger           *utils.Logger
	tempRoot         string
	keepExtracted    bool
	includeDocuments bool

	tracer   trace.Tracer
	parses   metric.Int64Counter
	duration metric.Float64Histogram
	docCount metric.Int64Histogram
}

// IndexerOptions contains options for creating an Indexer
type IndexerOptions struct {
	Archive    config.ArchiveConfig
	HTTPClient *http.Client
	Logger     *utils.Logger
	// Progress receives a copy of the downloaded archive bytes
	Progress io.Writer
	// IncludeDocuments adds every document's content to the result
	IncludeDocuments bool
}

// NewIndexer creates a new indexer
func NewIndexer(opts IndexerOptions) *Indexer {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Archive.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	logger = logger.WithComponent("indexer")

	naming := repo.NewGitHubNaming(opts.Archive.BaseURL, opts.Archive.Format)

	m := otel.Meter(instrName)
	parses, _ := m.Int64Counter("docstranslate.parse.requests",
		metric.WithDescription("Number of repository parse requests"))
	duration, _ := m.Float64Histogram("docstranslate.parse.duration",
		metric.WithDescription("Repository parse duration in milliseconds"),
		metric.WithUnit("ms"))
	docCount, _ := m.Int64Histogram("docstranslate.parse.documents",
		metric.WithDescription("Markdown documents found per repository"))

	return &Indexer{
		fetcher: repo.NewArchiveFetcher(repo.ArchiveFetcherOptions{
			HTTPClient: client,
			Naming:     naming,
			Logger:     logger,
			MaxSize:    opts.Archive.MaxSizeBytes(),
			Progress:   opts.Progress,
		}),
		extractor:        repo.NewExtractor(logger),
		naming:           naming,
		logger:           logger,
		tempRoot:         opts.Archive.TempDir,
		keepExtracted:    opts.Archive.KeepExtracted,
		includeDocuments: opts.IncludeDocuments,
		tracer:           otel.Tracer(instrName),
		parses:           parses,
		duration:         duration,
		docCount:         docCount,
	}
}

// Parse indexes the markdown documents of the repository at rawURL.
// Failures are returned as *domain.StatusError.
func (i *Indexer) Parse(ctx context.Context, rawURL string) (*domain.ParseResult, error) {
	ctx, span := i.tracer.Start(ctx, "Indexer.Parse",
		trace.WithAttributes(attribute.String("repo.url", rawURL)))
	defer span.End()

	start := time.Now()
	result, err := i.parse(ctx, rawURL)
	elapsed := float64(time.Since(start).Milliseconds())

	if err != nil {
		statusErr := domain.Classify(err)
		// the cause keeps local paths, only logs and spans see it
		cause := err
		if statusErr.Err != nil {
			cause = statusErr.Err
		}
		span.RecordError(cause)
		span.SetStatus(codes.Error, statusErr.Message)

		attrs := metric.WithAttributes(attribute.Int("status", statusErr.Code))
		i.parses.Add(ctx, 1, attrs)
		i.duration.Record(ctx, elapsed, attrs)

		i.logger.Warn().
			Err(cause).
			Str("url", rawURL).
			Int("status", statusErr.Code).
			Msg("Repository parse failed")
		return nil, statusErr
	}

	attrs := metric.WithAttributes(attribute.Int("status", http.StatusOK))
	i.parses.Add(ctx, 1, attrs)
	i.duration.Record(ctx, elapsed, attrs)
	i.docCount.Record(ctx, int64(result.Details.TotalMDFiles))

	span.SetAttributes(
		attribute.String("repo.owner", result.Details.Owner),
		attribute.String("repo.name", result.Details.Repo),
		attribute.String("repo.branch", result.Details.Branch),
		attribute.Int("repo.markdown_files", result.Details.TotalMDFiles),
	)

	i.logger.Info().
		Str("repo", result.Details.Owner+"/"+result.Details.Repo).
		Str("branch", result.Details.Branch).
		Int("documents", result.Details.TotalMDFiles).
		Dur("duration", time.Since(start)).
		Msg("Repository parsed")

	return result, nil
}

func (i *Indexer) parse(ctx context.Context, rawURL string) (_ *domain.ParseResult, err error) {
	id, err := repo.ParseGitHubURL(rawURL)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp(i.tempRoot, "docstranslate-*")
	if err != nil {
		return nil, &domain.StatusError{
			Code:    http.StatusInternalServerError,
			Message: "failed to create temp dir",
			Err:     err,
		}
	}
	defer func() {
		if err != nil {
			err = hideDir(err, tmpDir)
		}
	}()

	keep := false
	defer func() {
		if keep {
			return
		}
		if err := os.RemoveAll(tmpDir); err != nil {
			i.logger.Warn().Err(err).Str("dir", tmpDir).Msg("Failed to remove temp dir")
		}
	}()

	archivePath, err := i.fetcher.Fetch(ctx, *id, tmpDir)
	if err != nil {
		return nil, err
	}

	if err := i.extractor.Extract(archivePath, tmpDir); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	extracted := i.naming.ExtractedDir(*id)
	repoDir := filepath.Join(tmpDir, extracted)

	idx, err := repo.BuildTree(repoDir)
	if err != nil {
		return nil, err
	}

	// Only a kept directory is worth pointing at
	identifierDir := extracted
	if i.keepExtracted {
		keep = true
		identifierDir = repoDir
	}

	result := &domain.ParseResult{
		Status:  StatusSuccess,
		Message: MessageSuccess,
		Details: domain.ParseDetails{
			IdentifierDir: identifierDir,
			Owner:         id.Owner,
			Repo:          id.Repo,
			Branch:        id.Branch,
			TotalMDFiles:  len(idx.Documents),
		},
		Content: domain.NewArticleContent(idx.First),
		Files:   idx.Root,
	}
	if i.includeDocuments {
		result.Documents = idx.Documents
	}
	return result, nil
}

// hideDir classifies err and removes dir from the caller-facing message
func hideDir(err error, dir string) error {
	statusErr := domain.Classify(err)
	msg := strings.ReplaceAll(statusErr.Message, dir+string(filepath.Separator), "")
	msg = strings.ReplaceAll(msg, dir, "")
	if msg == statusErr.Message {
		return statusErr
	}
	return &domain.StatusError{Code: statusErr.Code, Message: msg, Err: err}
}

var _ domain.RepositoryParser = (*Indexer)(nil)
