package usecase

import (
	"context"
	"errors"
	"fmt"

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/ports"
)

// ErrNoDefinition is returned when an index falls outside a word's definition set.
var ErrNoDefinition = errors.New("no definition at index")

// Dictionary answers read-only word queries against the store.
type Dictionary struct {
	store ports.DefinitionStore
}

// NewDictionary wraps a store for lookups.
func NewDictionary(store ports.DefinitionStore) *Dictionary {
	return &Dictionary{store: store}
}

// Lookup returns all definitions of word in insertion order.
func (d *Dictionary) Lookup(ctx context.Context, word string) (domain.DefinitionSet, error) {
	if d.store == nil {
		return nil, ErrNotConfigured
	}
	return d.store.Lookup(ctx, word)
}

// At returns the definition at index together with the set size, for paging through a word.
func (d *Dictionary) At(ctx context.Context, word string, index int) (domain.DefinitionRecord, int, error) {
	set, err := d.Lookup(ctx, word)
	if err != nil {
		return domain.DefinitionRecord{}, 0, err
	}
	if index < 0 || index >= len(set) {
		return domain.DefinitionRecord{}, len(set), fmt.Errorf("%w: %d of %d", ErrNoDefinition, index, len(set))
	}
	return set[index], len(set), nil
}

// RemoveDuplicates runs the maintenance pass collapsing rows that share a dedup key.
func (d *Dictionary) RemoveDuplicates(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, ErrNotConfigured
	}
	return d.store.RemoveDuplicates(ctx)
}
