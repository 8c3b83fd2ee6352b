// Package repo turns a GitHub repository URL into an index of its markdown
// documents.
//
// The pipeline has four stages, each usable on its own:
//
//   - ParseGitHubURL resolves owner, repository and branch from a web URL
//   - ArchiveFetcher streams the branch snapshot archive to local storage
//   - Extractor unpacks the archive and removes it
//   - BuildTree walks the extracted directory and builds the document tree
//
// Naming conventions of the hosting provider (download URL, archive file
// name and the top-level directory inside the archive) live behind
// NamingStrategy so tests can swap them.
package repo
