package repo

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/utils"
)

// Extractor unpacks downloaded archives
type Extractor struct {
	logger *utils.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract unpacks archivePath into destDir and deletes the archive.
// The format is chosen from the file extension (.zip, .tar.gz or .tgz).
func (e *Extractor) Extract(archivePath, destDir string) error {
	var (
		count int
		err   error
	)

	switch {
	case strings.HasSuffix(archivePath, ".zip"):
		count, err = e.extractZip(archivePath, destDir)
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		count, err = e.extractTarGz(archivePath, destDir)
	default:
		err = domain.NewCorruptArchiveError(archivePath, fmt.Errorf("unknown archive extension"))
	}
	if err != nil {
		return err
	}

	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("remove archive failed: %w", err)
	}

	if e.logger != nil {
		e.logger.Debug().
			Str("dest", destDir).
			Int("entries", count).
			Msg("Archive extracted")
	}
	return nil
}

func (e *Extractor) extractZip(archivePath, destDir string) (int, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, domain.NewCorruptArchiveError(archivePath, err)
	}
	defer zr.Close()

	count := 0
	for _, f := range zr.File {
		targetPath, ok := safeJoin(destDir, f.Name)
		if !ok {
			e.skipEntry(f.Name)
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return count, fmt.Errorf("mkdir failed: %w", err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return count, domain.NewCorruptArchiveError(archivePath, err)
		}
		err = writeFile(targetPath, rc, f.Mode())
		rc.Close()
		if err != nil {
			return count, classifyEntryError(archivePath, err)
		}
		count++
	}

	return count, nil
}

func (e *Extractor) extractTarGz(archivePath, destDir string) (int, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return 0, fmt.Errorf("open archive failed: %w", err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return 0, domain.NewCorruptArchiveError(archivePath, err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	count := 0

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, domain.NewCorruptArchiveError(archivePath, err)
		}

		targetPath, ok := safeJoin(destDir, header.Name)
		if !ok {
			e.skipEntry(header.Name)
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return count, fmt.Errorf("mkdir failed: %w", err)
			}
		case tar.TypeReg:
			if err := writeFile(targetPath, tr, os.FileMode(header.Mode)); err != nil {
				return count, classifyEntryError(archivePath, err)
			}
			count++
		}
	}

	return count, nil
}

func (e *Extractor) skipEntry(name string) {
	if e.logger != nil {
		e.logger.Warn().Str("entry", name).Msg("Skipping archive entry outside destination")
	}
}

// entryReadError marks a failure reading archive data, as opposed to writing
// the extracted file
type entryReadError struct{ err error }

func (e *entryReadError) Error() string { return e.err.Error() }
func (e *entryReadError) Unwrap() error { return e.err }

type readErrorTagger struct{ r io.Reader }

func (t readErrorTagger) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		err = &entryReadError{err: err}
	}
	return n, err
}

func writeFile(targetPath string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	file, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0200)
	if err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}

	if _, err := io.Copy(file, readErrorTagger{r: r}); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func classifyEntryError(archivePath string, err error) error {
	var readErr *entryReadError
	if errors.As(err, &readErr) {
		return domain.NewCorruptArchiveError(archivePath, readErr.err)
	}
	return fmt.Errorf("extract failed: %w", err)
}

// safeJoin joins name under destDir and rejects entries that escape it
func safeJoin(destDir, name string) (string, bool) {
	if name == "" || filepath.IsAbs(name) {
		return "", false
	}
	target := filepath.Join(destDir, name)
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}
