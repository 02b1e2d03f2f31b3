package repository

import (
	"context"
	"fmt"

	"github.com/vinocellar/account-service/internal/dbx"
	"github.com/vinocellar/account-service/internal/models"
)

// collectionTables names the tables behind one collection kind.
type collectionTables struct {
	collections string
	items       string
	parentFK    string
}

var tablesByKind = map[string]collectionTables{
	models.CollectionCellar: {collections: "cellars", items: "cellar_bottles", parentFK: "cellar_id"},
	models.CollectionList:   {collections: "lists", items: "list_bottles", parentFK: "list_id"},
}

func tablesFor(kind string) (collectionTables, error) {
	t, ok := tablesByKind[kind]
	if !ok {
		return collectionTables{}, fmt.Errorf("unknown collection kind %q", kind)
	}
	return t, nil
}

// CollectionRepository reads and removes the cellars and lists a user owns,
// together with their bottle line items.
type CollectionRepository struct {
	db dbx.DBTX
}

func NewCollectionRepository(db dbx.DBTX) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// DeleteLineItems removes the bottle line items of every collection of kind
// owned by userID.
func (r *CollectionRepository) DeleteLineItems(ctx context.Context, kind, userID string) (int64, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(
		`DELETE FROM %s WHERE %s IN (SELECT id FROM %s WHERE user_id = $1)`,
		t.items, t.parentFK, t.collections,
	)
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", t.items, err)
	}
	return result.RowsAffected()
}

// DeleteCollections removes the collections of kind owned by userID. Their
// line items must already be gone.
func (r *CollectionRepository) DeleteCollections(ctx context.Context, kind, userID string) (int64, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, t.collections)
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", t.collections, err)
	}
	return result.RowsAffected()
}

// Totals counts the collections of kind owned by userID and sums the
// quantity and value (quantity × price) of their bottles.
func (r *CollectionRepository) Totals(ctx context.Context, kind, userID string) (models.CollectionTotals, error) {
	var totals models.CollectionTotals
	t, err := tablesFor(kind)
	if err != nil {
		return totals, err
	}
	query := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %[1]s WHERE user_id = $1),
			COALESCE(SUM(i.quantity), 0),
			COALESCE(SUM(i.quantity * i.price), 0)
		FROM %[2]s i
		JOIN %[1]s c ON c.id = i.%[3]s
		WHERE c.user_id = $1
	`, t.collections, t.items, t.parentFK)

	err = r.db.QueryRowContext(ctx, query, userID).Scan(&totals.Collections, &totals.Quantity, &totals.Value)
	if err != nil {
		return totals, fmt.Errorf("failed to total %s: %w", t.collections, err)
	}
	return totals, nil
}
