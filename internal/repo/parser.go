package repo

import (
	"regexp"
	"strings"

	"github.com/quantmind-br/docstranslate/internal/domain"
)

const (
	// InvalidURLMessage is returned to callers for URLs that do not match
	InvalidURLMessage = "Invalid GitHub URL. Format: https://github.com/owner/repo"

	// mainBranchRepo is the one repository name known to default to "main".
	// Every other repository without an explicit branch resolves to "master".
	mainBranchRepo = "llama3"

	defaultBranch = "master"
	mainBranch    = "main"
)

// githubPattern is a prefix match, trailing path segments are ignored
var githubPattern = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+)(?:/tree/([^/]+))?`)

// ParseGitHubURL extracts owner, repository and branch from a GitHub web URL
func ParseGitHubURL(rawURL string) (*domain.RepositoryIdentity, error) {
	matches := githubPattern.FindStringSubmatch(rawURL)
	if matches == nil {
		return nil, domain.NewInvalidInputError(rawURL, InvalidURLMessage)
	}

	repo := strings.TrimSuffix(matches[2], ".git")
	if repo == "" {
		return nil, domain.NewInvalidInputError(rawURL, InvalidURLMessage)
	}

	return &domain.RepositoryIdentity{
		Owner:  matches[1],
		Repo:   repo,
		Branch: resolveBranch(repo, matches[3]),
	}, nil
}

func resolveBranch(repo, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if repo == mainBranchRepo {
		return mainBranch
	}
	return defaultBranch
}
