package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/nutribox/internal/model"
)

type LunchboxStore struct {
	db DBTX
}

func NewLunchboxStore(db DBTX) *LunchboxStore {
	return &LunchboxStore{db: db}
}

func scanLunchbox(s scanner) (*model.Lunchbox, error) {
	var l model.Lunchbox
	err := s.Scan(&l.ID, &l.ChildID, &l.Name, &l.Description, &l.AssignmentDate, &l.Status,
		&l.IsDefault, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanLineItem(s scanner) (*model.LineItem, error) {
	var li model.LineItem
	if err := s.Scan(&li.ID, &li.LunchboxID, &li.FoodItemID, &li.Quantity, &li.Notes); err != nil {
		return nil, err
	}
	return &li, nil
}

const lunchboxCols = `id, child_id, name, description, assignment_date, status, is_default, created_at, updated_at`
const lineItemCols = `id, lunchbox_id, food_item_id, quantity, notes`

func (s *LunchboxStore) Create(ctx context.Context, l *model.Lunchbox) (*model.Lunchbox, error) {
	status := l.Status
	if status == "" {
		status = model.LunchboxDraft
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO lunchboxes (child_id, name, description, assignment_date, status, is_default)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.ChildID, l.Name, l.Description, l.AssignmentDate, status, l.IsDefault,
	)
	if err != nil {
		return nil, fmt.Errorf("insert lunchbox: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *LunchboxStore) GetByID(ctx context.Context, id int64) (*model.Lunchbox, error) {
	l, err := scanLunchbox(s.db.QueryRowContext(ctx, `SELECT `+lunchboxCols+` FROM lunchboxes WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lunchbox: %w", err)
	}
	return l, nil
}

// GetByChildAndDate returns the most recent non-deleted lunchbox assigned to
// the child on day, or nil.
func (s *LunchboxStore) GetByChildAndDate(ctx context.Context, childID int64, day model.Date) (*model.Lunchbox, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lunchboxCols+` FROM lunchboxes
		 WHERE child_id = ? AND assignment_date = ? AND status != ?
		 ORDER BY id DESC LIMIT 1`,
		childID, day, model.LunchboxDeleted,
	)
	l, err := scanLunchbox(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lunchbox by date: %w", err)
	}
	return l, nil
}

// LunchboxFilter narrows List. ParentID restricts results to that parent's
// children. Deleted lunchboxes are excluded unless Status asks for them.
type LunchboxFilter struct {
	ParentID int64
	ChildID  int64
	Status   model.LunchboxStatus
	From, To *model.Date
	Page     Page
}

func (s *LunchboxStore) List(ctx context.Context, f LunchboxFilter) ([]model.Lunchbox, error) {
	conds := []string{"child_id IN (SELECT id FROM children WHERE parent_id = ?)"}
	args := []any{f.ParentID}
	if f.ChildID != 0 {
		conds = append(conds, "child_id = ?")
		args = append(args, f.ChildID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	} else {
		conds = append(conds, "status != ?")
		args = append(args, model.LunchboxDeleted)
	}
	if f.From != nil {
		conds = append(conds, "assignment_date >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		conds = append(conds, "assignment_date <= ?")
		args = append(args, *f.To)
	}
	page := f.Page.normalized()
	query := `SELECT ` + lunchboxCols + ` FROM lunchboxes WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY assignment_date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lunchboxes: %w", err)
	}
	defer rows.Close()

	var lunchboxes []model.Lunchbox
	for rows.Next() {
		l, err := scanLunchbox(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lunchbox: %w", err)
		}
		lunchboxes = append(lunchboxes, *l)
	}
	return lunchboxes, rows.Err()
}

// Update writes every mutable field of l. ChildID is never changed.
func (s *LunchboxStore) Update(ctx context.Context, l *model.Lunchbox) (*model.Lunchbox, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE lunchboxes SET name = ?, description = ?, assignment_date = ?, status = ?, is_default = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		l.Name, l.Description, l.AssignmentDate, l.Status, l.IsDefault, l.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update lunchbox: %w", err)
	}
	return s.GetByID(ctx, l.ID)
}

func (s *LunchboxStore) SetStatus(ctx context.Context, id int64, status model.LunchboxStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE lunchboxes SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set lunchbox status: %w", err)
	}
	return nil
}

// ArchiveBefore archives every non-terminal lunchbox assigned before day and
// returns the archived rows.
func (s *LunchboxStore) ArchiveBefore(ctx context.Context, day model.Date) ([]model.Lunchbox, error) {
	rows, err := s.db.QueryContext(ctx,
		`UPDATE lunchboxes SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE assignment_date < ? AND status NOT IN (?, ?)
		 RETURNING id`,
		model.LunchboxArchived, day, model.LunchboxArchived, model.LunchboxDeleted,
	)
	if err != nil {
		return nil, fmt.Errorf("archive lunchboxes: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan archived id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("archive lunchboxes: %w", err)
	}
	rows.Close()

	archived := make([]model.Lunchbox, 0, len(ids))
	for _, id := range ids {
		l, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if l != nil {
			archived = append(archived, *l)
		}
	}
	return archived, nil
}

// UpsertItem adds quantity to the line item for (lunchboxID, foodItemID),
// creating it when absent. Non-empty notes replace existing notes.
func (s *LunchboxStore) UpsertItem(ctx context.Context, lunchboxID, foodItemID int64, quantity int, notes string) (*model.LineItem, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lunchbox_items (lunchbox_id, food_item_id, quantity, notes) VALUES (?, ?, ?, ?)
		 ON CONFLICT (lunchbox_id, food_item_id) DO UPDATE SET
		   quantity = quantity + excluded.quantity,
		   notes = CASE WHEN excluded.notes != '' THEN excluded.notes ELSE notes END`,
		lunchboxID, foodItemID, quantity, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert lunchbox item: %w", err)
	}
	return s.GetItem(ctx, lunchboxID, foodItemID)
}

func (s *LunchboxStore) GetItem(ctx context.Context, lunchboxID, foodItemID int64) (*model.LineItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lineItemCols+` FROM lunchbox_items WHERE lunchbox_id = ? AND food_item_id = ?`,
		lunchboxID, foodItemID)
	li, err := scanLineItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lunchbox item: %w", err)
	}
	return li, nil
}

// DeleteItem removes the line item and reports whether one existed.
func (s *LunchboxStore) DeleteItem(ctx context.Context, lunchboxID, foodItemID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM lunchbox_items WHERE lunchbox_id = ? AND food_item_id = ?`, lunchboxID, foodItemID)
	if err != nil {
		return false, fmt.Errorf("delete lunchbox item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *LunchboxStore) ListItems(ctx context.Context, lunchboxID int64) ([]model.LineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lineItemCols+` FROM lunchbox_items WHERE lunchbox_id = ? ORDER BY id`, lunchboxID)
	if err != nil {
		return nil, fmt.Errorf("list lunchbox items: %w", err)
	}
	defer rows.Close()

	var items []model.LineItem
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lunchbox item: %w", err)
		}
		items = append(items, *li)
	}
	return items, rows.Err()
}
