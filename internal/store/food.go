package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/nutribox/internal/model"
)

type FoodItemStore struct {
	db DBTX
}

func NewFoodItemStore(db DBTX) *FoodItemStore {
	return &FoodItemStore{db: db}
}

func scanFoodItem(s scanner) (*model.FoodItem, error) {
	var f model.FoodItem
	err := s.Scan(&f.ID, &f.Name, &f.Category, &f.Description, &f.Calories, &f.Protein, &f.Carbs,
		&f.Fat, &f.Fiber, &f.Status, &f.ImageURL, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const foodItemCols = `id, name, category, description, calories, protein, carbs, fat, fiber, status, image_url, created_at, updated_at`

func (s *FoodItemStore) Create(ctx context.Context, f *model.FoodItem) (*model.FoodItem, error) {
	status := f.Status
	if status == "" {
		status = model.FoodActive
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO food_items (name, category, description, calories, protein, carbs, fat, fiber, status, image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Category, f.Description, f.Calories, f.Protein, f.Carbs, f.Fat, f.Fiber, status, f.ImageURL,
	)
	if err != nil {
		return nil, fmt.Errorf("insert food item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the item regardless of status.
func (s *FoodItemStore) GetByID(ctx context.Context, id int64) (*model.FoodItem, error) {
	f, err := scanFoodItem(s.db.QueryRowContext(ctx, `SELECT `+foodItemCols+` FROM food_items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get food item: %w", err)
	}
	return f, nil
}

// GetMany returns the items with the given ids keyed by id. Missing ids are
// absent from the map.
func (s *FoodItemStore) GetMany(ctx context.Context, ids []int64) (map[int64]model.FoodItem, error) {
	items := make(map[int64]model.FoodItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+foodItemCols+` FROM food_items WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get food items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFoodItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan food item: %w", err)
		}
		items[f.ID] = *f
	}
	return items, rows.Err()
}

// FoodFilter narrows List. Query matches name or category case-insensitively.
type FoodFilter struct {
	Status   model.FoodStatus
	Category string
	Query    string
	Page     Page
}

func (s *FoodItemStore) List(ctx context.Context, f FoodFilter) ([]model.FoodItem, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Category != "" {
		conds = append(conds, "fold(category) = ?")
		args = append(args, strings.ToLower(f.Category))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		conds = append(conds, `(fold(name) LIKE ? ESCAPE '\' OR fold(category) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	query := `SELECT ` + foodItemCols + ` FROM food_items`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	page := f.Page.normalized()
	query += " ORDER BY name, id LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list food items: %w", err)
	}
	defer rows.Close()

	var items []model.FoodItem
	for rows.Next() {
		item, err := scanFoodItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan food item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *FoodItemStore) Update(ctx context.Context, f *model.FoodItem) (*model.FoodItem, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE food_items SET name = ?, category = ?, description = ?, calories = ?, protein = ?, carbs = ?,
		 fat = ?, fiber = ?, image_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		f.Name, f.Category, f.Description, f.Calories, f.Protein, f.Carbs, f.Fat, f.Fiber, f.ImageURL, f.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update food item: %w", err)
	}
	return s.GetByID(ctx, f.ID)
}

func (s *FoodItemStore) SetStatus(ctx context.Context, id int64, status model.FoodStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE food_items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set food item status: %w", err)
	}
	return nil
}

// HistoryStore is the append-only audit log of catalog changes. It has no
// update or delete operations.
type HistoryStore struct {
	db DBTX
}

func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db}
}

func scanHistoryEntry(s scanner) (*model.HistoryEntry, error) {
	var h model.HistoryEntry
	err := s.Scan(&h.ID, &h.FoodItemID, &h.Action, &h.Actor, &h.PriorState, &h.Reason, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const historyCols = `id, food_item_id, action, actor, prior_state, reason, created_at`

func (s *HistoryStore) Append(ctx context.Context, h *model.HistoryEntry) (*model.HistoryEntry, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO food_item_history (food_item_id, action, actor, prior_state, reason) VALUES (?, ?, ?, ?, ?)`,
		h.FoodItemID, h.Action, h.Actor, h.PriorState, h.Reason,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	entry, err := scanHistoryEntry(s.db.QueryRowContext(ctx,
		`SELECT `+historyCols+` FROM food_item_history WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	return entry, nil
}

// ListByFoodItem returns entries oldest first.
func (s *HistoryStore) ListByFoodItem(ctx context.Context, foodItemID int64) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+historyCols+` FROM food_item_history WHERE food_item_id = ? ORDER BY id`, foodItemID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		h, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, *h)
	}
	return entries, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as the
// escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
