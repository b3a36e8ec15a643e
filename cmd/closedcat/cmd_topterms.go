package main

import (
	"fmt"
	"path/filepath"

	"closedcat/internal/report"
	"closedcat/internal/store"
	"closedcat/internal/table"
	"closedcat/internal/tags"
	"closedcat/internal/tally"

	"github.com/spf13/cobra"
)

// TopTermsFile is the Markdown table written by the topterms command.
const TopTermsFile = "top_closed_category_terms.md"

// topTermsCmd ranks the most frequent words per closed-category tag
var topTermsCmd = &cobra.Command{
	Use:   "topterms",
	Short: "Most frequent closed-category terms per tag",
	Long: `Reads the per-tag statistical-analysis files, pairs split words with
grammar-pattern tags by position and ranks the words carrying the file's tag.
Prints and writes a Markdown table with one column per tag.`,
	RunE: runTopTerms,
}

func runTopTerms(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	tagOrder := cfg.TopTerms.Tags
	paths := make([]string, len(tagOrder))
	for i, tag := range tagOrder {
		if !tags.IsClosed(tag) {
			return fmt.Errorf("topterms.tags: %q is not a closed-category tag", tag)
		}
		name, ok := cfg.Data.TagFiles[tag]
		if !ok {
			return fmt.Errorf("data.tag_files has no file for tag %q", tag)
		}
		paths[i] = cfg.DataPath(name)
	}

	return track(ctx, "topterms", paths, func(run *store.Run) error {
		tables, err := table.LoadAll(ctx, paths, table.TSV(table.ColSplit, table.ColPattern))
		if err != nil {
			return err
		}
		counters := make(map[string]*tally.Counter, len(tagOrder))
		for i, tag := range tagOrder {
			counters[tag] = tally.TermsForTags(tables[i].Records, tally.Alignment(cfg.Data.Alignment), tag)
		}

		md := report.NewTopTerms(tagOrder, cfg.TopTerms.Limit, counters).Markdown()
		out := filepath.Join(cfg.Output.Dir, TopTermsFile)
		if err := report.WriteText(out, md); err != nil {
			return err
		}
		run.Outputs = []string{out}
		return showMarkdown(cmd.OutOrStdout(), md)
	})
}
