package repo

import (
	"fmt"
	"strings"

	"github.com/quantmind-br/docstranslate/internal/domain"
)

// Archive formats understood by the extractor
const (
	FormatZip   = "zip"
	FormatTarGz = "tar.gz"
)

// NamingStrategy captures a hosting provider's branch snapshot conventions
type NamingStrategy interface {
	// ArchiveURL is the download URL of the branch snapshot
	ArchiveURL(id domain.RepositoryIdentity) string
	// ArchiveFileName is the local file name the snapshot is saved under
	ArchiveFileName(id domain.RepositoryIdentity) string
	// ExtractedDir is the top-level directory the archive unpacks into
	ExtractedDir(id domain.RepositoryIdentity) string
}

// GitHubNaming implements NamingStrategy for github.com and GitHub Enterprise
type GitHubNaming struct {
	BaseURL string
	Format  string
}

// NewGitHubNaming creates a naming strategy. Empty values fall back to
// https://github.com and zip archives.
func NewGitHubNaming(baseURL, format string) *GitHubNaming {
	if baseURL == "" {
		baseURL = "https://github.com"
	}
	if format == "" {
		format = FormatZip
	}
	return &GitHubNaming{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Format:  format,
	}
}

func (n *GitHubNaming) ArchiveURL(id domain.RepositoryIdentity) string {
	return fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.%s",
		n.BaseURL, id.Owner, id.Repo, id.Branch, n.Format)
}

func (n *GitHubNaming) ArchiveFileName(id domain.RepositoryIdentity) string {
	return id.Repo + "." + n.Format
}

func (n *GitHubNaming) ExtractedDir(id domain.RepositoryIdentity) string {
	return id.Repo + "-" + id.Branch
}
