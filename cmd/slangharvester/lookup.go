package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"SlangHarvester/internal/domain"
)

// NewLookupCmd creates the lookup command.
func NewLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <word>",
		Short: "Print the stored definitions of a word",
		Long: `Lookup prints every stored definition of a word in the order they were harvested.

Examples:
  # All definitions
  slangharvester lookup kalja

  # Only the second definition
  slangharvester lookup --index 1 kalja

  # Machine-readable output
  slangharvester lookup --json kalja`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := cmd.Flags().GetInt("index")
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			application, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			var set domain.DefinitionSet
			if index >= 0 {
				rec, total, err := application.Definition(cmd.Context(), args[0], index)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), positionJSON{
						Index:      index,
						Total:      total,
						Definition: toJSON(rec),
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d/%d\n", index+1, total)
				set = domain.DefinitionSet{rec}
			} else {
				set, err = application.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
			}

			if asJSON {
				out := make([]definitionJSON, 0, len(set))
				for _, rec := range set {
					out = append(out, toJSON(rec))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			if len(set) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No definitions for %q\n", args[0])
				return nil
			}
			writeText(cmd.OutOrStdout(), set)
			return nil
		},
	}

	cmd.Flags().IntP("index", "i", -1, "Print only the definition at this zero-based position")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")

	return cmd
}

type definitionJSON struct {
	Word        string   `json:"word"`
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Examples    []string `json:"examples,omitempty"`
	Author      string   `json:"author"`
	PostedDate  string   `json:"posted_date"`
	Upvotes     int      `json:"upvotes"`
	Downvotes   int      `json:"downvotes"`
	Labels      []string `json:"labels,omitempty"`
}

// positionJSON is the --index form: one definition and where it sits in the word's set.
type positionJSON struct {
	Index      int            `json:"index"`
	Total      int            `json:"total"`
	Definition definitionJSON `json:"definition"`
}

func toJSON(rec domain.DefinitionRecord) definitionJSON {
	return definitionJSON{
		Word:        rec.Word,
		Title:       rec.Title,
		Explanation: rec.Explanation,
		Examples:    splitNonEmpty(rec.Examples, domain.ExampleSeparator),
		Author:      rec.Author,
		PostedDate:  rec.PostedDate,
		Upvotes:     rec.Upvotes,
		Downvotes:   rec.Downvotes,
		Labels:      splitNonEmpty(rec.Labels, domain.LabelSeparator),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeText(w io.Writer, set domain.DefinitionSet) {
	for i, rec := range set {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (+%d/-%d)\n", rec.Title, rec.Upvotes, rec.Downvotes)
		fmt.Fprintln(w, rec.Explanation)
		for _, ex := range splitNonEmpty(rec.Examples, domain.ExampleSeparator) {
			fmt.Fprintf(w, "  > %s\n", ex)
		}
		if rec.Labels != "" {
			fmt.Fprintf(w, "  [%s]\n", rec.Labels)
		}
		fmt.Fprintf(w, "  %s, %s\n", rec.Author, rec.PostedDate)
	}
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}
