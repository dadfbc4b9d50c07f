package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/storage"
)

// RecipeRepository implements storage.RecipeRepository for BadgerDB.
type RecipeRepository struct {
	backend *Backend
}

var _ storage.RecipeRepository = (*RecipeRepository)(nil)

// NewRecipeRepository creates a new RecipeRepository.
func NewRecipeRepository(backend *Backend) (*RecipeRepository, error) {
	if backend == nil {
		return nil, errors.New("badger: backend required")
	}
	return &RecipeRepository{
		backend: backend,
	}, nil
}

// Close releases resources. RecipeRepository has no resources to release.
func (r *RecipeRepository) Close() error {
	return nil
}

// Upsert inserts or merges the recipe at (sourceURL, position).
func (r *RecipeRepository) Upsert(ctx context.Context, sourceURL string, position int, fields core.RecipeFields, ownerID, groupID int64) (*storage.UpsertResult, error) {
	var result *storage.UpsertResult
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = upsertRecipe(tx, sourceURL, position, fields, ownerID, groupID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert %s#%d: %w", sourceURL, position, err)
	}
	return result, nil
}

// UpsertAll upserts recipes[i] at position i, all in one transaction.
func (r *RecipeRepository) UpsertAll(ctx context.Context, sourceURL string, recipes []core.RecipeFields, ownerID, groupID int64) ([]*storage.UpsertResult, error) {
	if len(recipes) == 0 {
		return nil, nil
	}
	var results []*storage.UpsertResult
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		results = make([]*storage.UpsertResult, 0, len(recipes))
		for position, fields := range recipes {
			result, err := upsertRecipe(tx, sourceURL, position, fields, ownerID, groupID)
			if err != nil {
				return fmt.Errorf("position %d: %w", position, err)
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", sourceURL, err)
	}
	return results, nil
}

// MergeOwner merges the submitter into every record stored for sourceURL.
func (r *RecipeRepository) MergeOwner(ctx context.Context, sourceURL string, ownerID, groupID int64) ([]*core.RecipeRecord, error) {
	var merged []*core.RecipeRecord
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		merged = nil
		records, err := recipesForURL(tx, sourceURL)
		if err != nil {
			return err
		}
		for _, record := range records {
			if err := mergeOwner(tx, record, ownerID, groupID); err != nil {
				return err
			}
			merged = append(merged, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("merge owner into %s: %w", sourceURL, err)
	}
	return merged, nil
}

// FindByID retrieves a single record by ID.
func (r *RecipeRepository) FindByID(ctx context.Context, id core.ID) (*core.RecipeRecord, error) {
	var record *core.RecipeRecord
	err := r.backend.View(func(tx *badger.Txn) error {
		var err error
		record, err = readRecipe(tx, makeRecipeKey(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// FindByURL retrieves every record stored for sourceURL, ordered by position.
func (r *RecipeRepository) FindByURL(ctx context.Context, sourceURL string) ([]*core.RecipeRecord, error) {
	var records []*core.RecipeRecord
	err := r.backend.View(func(tx *badger.Txn) error {
		var err error
		records, err = recipesForURL(tx, sourceURL)
		return err
	})
	return records, err
}

// ListByOwner returns summaries of the records ownerID has submitted.
func (r *RecipeRepository) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]core.RecipeSummary, error) {
	return r.listByMember(recipeOwnerPrefix, ownerID, limit)
}

// ListByGroup returns summaries of the records submitted from groupID.
func (r *RecipeRepository) ListByGroup(ctx context.Context, groupID int64, limit int) ([]core.RecipeSummary, error) {
	return r.listByMember(recipeGroupPrefix, groupID, limit)
}

func (r *RecipeRepository) listByMember(prefix string, member int64, limit int) ([]core.RecipeSummary, error) {
	if limit < 0 {
		return nil, storage.ErrInvalidQuery
	}
	var summaries []core.RecipeSummary
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makePartialMemberKey(prefix, member)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id := memberRecordID(iter.Item().Key())
			record, err := readRecipe(tx, makeRecipeKey(id))
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			summaries = append(summaries, record.Summary())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(summaries, func(a, b core.RecipeSummary) int {
		if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// ForEach visits records in ID order in batches, starting after the given ID.
func (r *RecipeRepository) ForEach(ctx context.Context, after core.ID, batchSize int, fn func([]*core.RecipeRecord) error) error {
	if batchSize <= 0 {
		return storage.ErrInvalidQuery
	}
	cursor := after
	started := after != 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Read one batch per transaction so long runs don't pin a snapshot.
		var batch []*core.RecipeRecord
		err := r.backend.View(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(recipePrefix)
			iter := tx.NewIterator(opts)
			defer iter.Close()

			if started {
				iter.Seek(makeRecipeKey(cursor))
			} else {
				iter.Rewind()
			}
			for ; iter.Valid() && len(batch) < batchSize; iter.Next() {
				item := iter.Item()
				if started && recipeIDFromKey(item.Key()) == cursor {
					continue
				}
				var record *core.RecipeRecord
				err := item.Value(func(val []byte) error {
					var err error
					record, err = storage.UnmarshalRecipe(val)
					return err
				})
				if err != nil {
					return err
				}
				batch = append(batch, record)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		cursor = batch[len(batch)-1].ID
		started = true
	}
}

// Count returns the number of stored records.
func (r *RecipeRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(recipePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Helper methods

// upsertRecipe inserts the recipe at (sourceURL, position) or merges the
// submitter into the stored one.
func upsertRecipe(tx *badger.Txn, sourceURL string, position int, fields core.RecipeFields, ownerID, groupID int64) (*storage.UpsertResult, error) {
	id := core.RecipeID(sourceURL, position)
	existing, err := readRecipe(tx, makeRecipeKey(id))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := mergeOwner(tx, existing, ownerID, groupID); err != nil {
			return nil, err
		}
		return &storage.UpsertResult{Created: false, Record: existing}, nil
	}

	record := core.NewRecipeRecord(sourceURL, position, fields, ownerID, groupID)
	if err := core.ValidateRecord(record); err != nil {
		return nil, err
	}
	record.InsertedAt = time.Now().UTC()
	record.UpdatedAt = record.InsertedAt
	if err := writeRecipe(tx, record); err != nil {
		return nil, err
	}

	// Secondary indices
	if err := tx.Set(makeURLKey(sourceURL, position), storage.MarshalID(record.ID)); err != nil {
		return nil, err
	}
	if err := writeMemberKeys(tx, record.ID, ownerID, groupID); err != nil {
		return nil, err
	}
	return &storage.UpsertResult{Created: true, Record: record}, nil
}

// mergeOwner folds ownerID and groupID into record and persists the change, if any.
func mergeOwner(tx *badger.Txn, record *core.RecipeRecord, ownerID, groupID int64) error {
	if !record.AddOwner(ownerID, groupID) {
		return nil
	}
	record.UpdatedAt = time.Now().UTC()
	if err := writeRecipe(tx, record); err != nil {
		return err
	}
	return writeMemberKeys(tx, record.ID, ownerID, groupID)
}

func writeMemberKeys(tx *badger.Txn, id core.ID, ownerID, groupID int64) error {
	if err := tx.Set(makeMemberKey(recipeOwnerPrefix, ownerID, id), nil); err != nil {
		return err
	}
	if groupID != 0 {
		if err := tx.Set(makeMemberKey(recipeGroupPrefix, groupID, id), nil); err != nil {
			return err
		}
	}
	return nil
}

func writeRecipe(tx *badger.Txn, record *core.RecipeRecord) error {
	value, err := storage.MarshalRecipe(record)
	if err != nil {
		return err
	}
	return tx.Set(makeRecipeKey(record.ID), value)
}

// recipesForURL resolves the URL index to full records, ordered by position.
func recipesForURL(tx *badger.Txn, sourceURL string) ([]*core.RecipeRecord, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialURLKey(sourceURL)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var records []*core.RecipeRecord
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		if !bytes.HasPrefix(item.Key(), opts.Prefix) {
			break
		}
		var id core.ID
		err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		record, err := readRecipe(tx, makeRecipeKey(id))
		if err != nil {
			return nil, err
		}
		if record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

// readRecipe reads a recipe from the transaction.
// Returns nil, nil if the key doesn't exist.
func readRecipe(tx *badger.Txn, key []byte) (*core.RecipeRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.RecipeRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalRecipe(val)
		return err
	})
	return record, err
}
