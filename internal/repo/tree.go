package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/docstranslate/internal/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// BuildTree walks root and returns the markdown tree, the ordered document
// list and the first document. Any read or encoding failure aborts the whole
// walk; no partial index is returned.
func BuildTree(root string) (*domain.Index, error) {
	idx := &domain.Index{
		Root: domain.NewDirectoryNode(domain.RootNodeName),
	}

	for rel, err := range WalkMarkdown(root) {
		if err != nil {
			return nil, err
		}

		content, err := readDocument(root, rel)
		if err != nil {
			return nil, err
		}

		if err := insertPath(idx.Root, rel); err != nil {
			return nil, err
		}

		idx.Documents = append(idx.Documents, domain.MarkdownDocument{
			Title:        path.Base(rel),
			Content:      content,
			RelativePath: rel,
		})
	}

	if len(idx.Documents) > 0 {
		idx.First = &idx.Documents[0]
	}
	return idx, nil
}

// insertPath adds the directories of rel on demand, then rel's file node
func insertPath(root *domain.FileNode, rel string) error {
	segments := strings.Split(rel, "/")
	current := root

	for i, segment := range segments[:len(segments)-1] {
		next, err := current.AddChild(domain.NewDirectoryNode(segment))
		if err != nil {
			return conflictAt(segments[:i+1], err)
		}
		current = next
	}

	if _, err := current.AddChild(domain.NewFileNode(segments[len(segments)-1])); err != nil {
		return conflictAt(segments, err)
	}
	return nil
}

func conflictAt(segments []string, err error) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return &domain.ConflictError{Path: strings.Join(segments, "/")}
	}
	return err
}

// readDocument reads root/rel as UTF-8 text with universal newlines.
// Errors name the document by rel so the local root stays private.
func readDocument(root, rel string) (string, error) {
	file, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", readError(rel, err)
	}
	defer file.Close()

	validated := transform.NewReader(file, encoding.UTF8Validator)
	data, err := io.ReadAll(validated)
	if err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return "", domain.NewEncodingError(rel, err)
		}
		return "", readError(rel, err)
	}

	return normalizeNewlines(data), nil
}

// readError swaps the absolute path of a filesystem error for rel
func readError(rel string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return fmt.Errorf("read %s: %w", rel, err)
}

func normalizeNewlines(data []byte) string {
	if bytes.IndexByte(data, '\r') < 0 {
		return string(data)
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	return string(data)
}
