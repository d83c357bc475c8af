package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExampleSeparator joins quotation blocks of a single definition.
const ExampleSeparator = "\n\n"

// LabelSeparator joins label spans into their display form.
const LabelSeparator = ", "

// DefinitionRecord is one user-submitted slang definition.
type DefinitionRecord struct {
	ID          int64
	Word        string
	Title       string
	Explanation string
	Examples    string
	Author      string
	PostedDate  string
	Upvotes     int
	Downvotes   int
	Labels      string
}

// DefinitionSet holds every record sharing a word in insertion order.
type DefinitionSet []DefinitionRecord

// HarvestLink references a definition page, usually as a site-relative path.
type HarvestLink string

// NormalizeWord produces the lookup key for a word or title.
// A Caser keeps state between calls, so each call gets its own.
func NormalizeWord(word string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(word))
}

// Accepted reports whether the community reception is not net-negative.
func (r DefinitionRecord) Accepted() bool {
	return r.Upvotes >= r.Downvotes
}

// Valid reports whether the record carries every field the dedup key needs.
func (r DefinitionRecord) Valid() bool {
	return strings.TrimSpace(r.Word) != "" &&
		strings.TrimSpace(r.Title) != "" &&
		strings.TrimSpace(r.Explanation) != "" &&
		r.Upvotes >= 0 && r.Downvotes >= 0
}

// DedupKey returns the tuple used to suppress duplicate rows.
func (r DefinitionRecord) DedupKey() [3]string {
	return [3]string{r.Word, r.Title, r.Explanation}
}

// InsertOutcome classifies the result of storing a record.
type InsertOutcome int

const (
	// OutcomeInserted means a new row was written.
	OutcomeInserted InsertOutcome = iota
	// OutcomeDuplicate means a row with the same dedup key already exists.
	OutcomeDuplicate
	// OutcomeInvalid means the record lacks a required field and was never sent to storage.
	OutcomeInvalid
	// OutcomeFaulted means the backing store failed; the record was not saved this time.
	OutcomeFaulted
)

// Stored reports whether the outcome added a row.
func (o InsertOutcome) Stored() bool {
	return o == OutcomeInserted
}

func (o InsertOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// CycleReport summarizes one harvest run.
type CycleReport struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Tabs          int
	Links         int
	LinksFailed   int
	LinksSkipped  int
	Extracted     int
	Inserted      int
	Duplicates    int
	Invalid       int
	StorageFaults int
}

// Duration is the wall time between start and finish.
func (c CycleReport) Duration() time.Duration {
	if c.FinishedAt.IsZero() {
		return 0
	}
	return c.FinishedAt.Sub(c.StartedAt)
}
