package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"strconv"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/quantmind-br/docstranslate/internal/app"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

var parseCmd = &cobra.Command{
	Use:   "parse <github-url>",
	Short: "Index the markdown documents of a repository",
	Long: `Downloads the branch snapshot of a GitHub repository and prints the
markdown tree. Without a /tree/<branch> suffix the branch defaults to master.`,
	Example: `  docstranslate parse https://github.com/meta-llama/llama3
  docstranslate parse https://github.com/owner/repo/tree/dev --format table
  docstranslate parse https://github.com/owner/repo --documents > index.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringP("format", "f", formatJSON, "Output format (json, table)")
	parseCmd.Flags().Bool("documents", false, "Include every document's content in JSON output")
	parseCmd.Flags().Bool("keep", false, "Keep the extracted snapshot on disk")
	parseCmd.Flags().Bool("no-progress", false, "Disable the download progress bar")

	_ = viper.BindPFlag("archive.keep_extracted", parseCmd.Flags().Lookup("keep"))
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format != formatJSON && format != formatTable {
		return fmt.Errorf("unknown output format %q", format)
	}
	includeDocs, _ := cmd.Flags().GetBool("documents")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.IndexerOptions{
		Archive:          cfg.Archive,
		Logger:           log,
		IncludeDocuments: includeDocs,
	}
	if !noProgress {
		bar := utils.NewDownloadBar(-1, cmd.ErrOrStderr())
		defer bar.Finish()
		opts.Progress = bar
	}

	result, err := app.NewIndexer(opts).Parse(ctx, args[0])
	if err != nil {
		return err
	}

	if format == formatTable {
		renderTable(cmd.OutOrStdout(), result)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

// renderTable prints the repository details followed by one row per document
func renderTable(w io.Writer, result *domain.ParseResult) {
	d := result.Details
	fmt.Fprintf(w, "%s/%s@%s: %d markdown file(s) in %s\n\n", d.Owner, d.Repo, d.Branch, d.TotalMDFiles, d.IdentifierDir)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Path", "Title"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for i, p := range documentPaths(result.Files) {
		table.Append([]string{strconv.Itoa(i + 1), p, path.Base(p)})
	}
	table.Render()
}

// documentPaths lists the file paths of a tree in display order
func documentPaths(root *domain.FileNode) []string {
	var paths []string
	var walk func(n *domain.FileNode, prefix string)
	walk = func(n *domain.FileNode, prefix string) {
		for _, child := range n.Children() {
			p := path.Join(prefix, child.Name)
			if child.IsFile {
				paths = append(paths, p)
				continue
			}
			walk(child, p)
		}
	}
	if root != nil {
		walk(root, "")
	}
	return paths
}
