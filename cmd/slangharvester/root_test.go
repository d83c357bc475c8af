package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/infrastructure/storage"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	if cmd.Use != "slangharvester" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}

	for _, name := range []string{"serve", "harvest", "lookup", "dedupe"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q", name)
		}
	}

	for _, flag := range []string{"config", "database", "verbose"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent flag %q", flag)
		}
	}
}

func seedDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "words.db")
	repo, err := storage.Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	for _, expl := range []string{"first meaning", "second meaning"} {
		_, err := repo.Insert(context.Background(), domain.DefinitionRecord{
			Word:        "kalja",
			Title:       "Kalja",
			Explanation: expl,
			Examples:    "otetaan kaljat\n\nyks kalja",
			Author:      "tester",
			PostedDate:  "1.1.2024",
			Upvotes:     7,
			Downvotes:   1,
			Labels:      "juoma (2)",
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLookupCmdText(t *testing.T) {
	t.Parallel()

	path := seedDatabase(t)
	out, err := run(t, "lookup", "-d", path, "KALJA")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, "Kalja (+7/-1)") || !strings.Contains(out, "second meaning") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "  > yks kalja") {
		t.Fatalf("examples must be listed one per line:\n%s", out)
	}
	if strings.Index(out, "first meaning") > strings.Index(out, "second meaning") {
		t.Fatalf("definitions must keep insertion order:\n%s", out)
	}

	out, err = run(t, "lookup", "-d", path, "missing")
	if err != nil {
		t.Fatalf("lookup missing: %v", err)
	}
	if !strings.Contains(out, `No definitions for "missing"`) {
		t.Fatalf("unexpected output for unknown word:\n%s", out)
	}
}

func TestLookupCmdIndexAndJSON(t *testing.T) {
	t.Parallel()

	path := seedDatabase(t)
	out, err := run(t, "lookup", "-d", path, "--index", "1", "--json", "kalja")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	var got positionJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output must be a single JSON document: %v\n%s", err, out)
	}
	if got.Index != 1 || got.Total != 2 {
		t.Fatalf("unexpected position: %d of %d", got.Index, got.Total)
	}
	if got.Definition.Explanation != "second meaning" || len(got.Definition.Examples) != 2 {
		t.Fatalf("unexpected json: %+v", got)
	}

	out, err = run(t, "lookup", "-d", path, "--json", "kalja")
	if err != nil {
		t.Fatalf("lookup all: %v", err)
	}
	var all []definitionJSON
	if err := json.Unmarshal([]byte(out), &all); err != nil {
		t.Fatalf("output must be a JSON array: %v\n%s", err, out)
	}
	if len(all) != 2 || all[0].Explanation != "first meaning" || len(all[1].Labels) != 1 || all[1].Labels[0] != "juoma (2)" {
		t.Fatalf("unexpected json: %+v", all)
	}

	out, err = run(t, "lookup", "-d", path, "--index", "0", "kalja")
	if err != nil {
		t.Fatalf("lookup text index: %v", err)
	}
	if !strings.HasPrefix(out, "1/2\n") || strings.Contains(out, "second meaning") {
		t.Fatalf("unexpected text output:\n%s", out)
	}

	if _, err := run(t, "lookup", "-d", path, "--index", "5", "kalja"); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
}

func TestDedupeCmd(t *testing.T) {
	t.Parallel()

	path := seedDatabase(t)
	out, err := run(t, "dedupe", "-d", path)
	if err != nil {
		t.Fatalf("dedupe: %v", err)
	}
	if !strings.Contains(out, "Removed 0 duplicate definitions") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestLookupCmdRequiresWord(t *testing.T) {
	t.Parallel()

	if _, err := run(t, "lookup"); err == nil {
		t.Fatalf("expected argument error")
	}
}
