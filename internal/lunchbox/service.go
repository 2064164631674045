// Package lunchbox implements the lunchbox lifecycle: creation, line item
// edits, status transitions and the nutritional read side.
package lunchbox

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/database"
	"github.com/dukerupert/nutribox/internal/metrics"
	"github.com/dukerupert/nutribox/internal/model"
	"github.com/dukerupert/nutribox/internal/nutrition"
	"github.com/dukerupert/nutribox/internal/policy"
	"github.com/dukerupert/nutribox/internal/store"
	"github.com/dukerupert/nutribox/internal/validate"
	"github.com/dukerupert/nutribox/internal/websocket"
)

// Notifier delivers change events to one user's live connections.
type Notifier interface {
	SendToUser(userID int64, msg websocket.Message)
}

type Service struct {
	db     *sql.DB
	notify Notifier
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a Service. notify may be nil.
func NewService(db *sql.DB, notify Notifier, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		notify: notify,
		logger: logger,
		now:    time.Now,
	}
}

// MaxQuantity caps a single line item, including quantity accumulated over
// repeated adds.
const MaxQuantity = 99

// ItemInput describes a line item to add. A nil Quantity means one unit.
type ItemInput struct {
	FoodItemID int64  `json:"food_item_id" validate:"required,gt=0"`
	Quantity   *int   `json:"quantity" validate:"omitempty,gte=1,lte=99"`
	Notes      string `json:"notes" validate:"max=255"`
}

func (in ItemInput) quantity() int {
	if in.Quantity == nil {
		return 1
	}
	return *in.Quantity
}

type CreateInput struct {
	ChildID        int64       `json:"child_id" validate:"required,gt=0"`
	Name           string      `json:"name" validate:"required,min=2,max=100"`
	Description    string      `json:"description" validate:"max=500"`
	AssignmentDate model.Date  `json:"assignment_date"`
	IsDefault      bool        `json:"is_default"`
	Items          []ItemInput `json:"items" validate:"dive"`
}

type ItemDetail struct {
	model.LineItem
	Food *model.FoodItem `json:"food"`
}

// Detail is a lunchbox with its resolved line items and totals.
type Detail struct {
	model.Lunchbox
	Items   []ItemDetail      `json:"items"`
	Summary nutrition.Summary `json:"summary"`
}

type ListFilter struct {
	ChildID int64
	Status  model.LunchboxStatus
	Page    store.Page
}

// Create persists a Draft lunchbox and its initial items in one transaction.
func (s *Service) Create(ctx context.Context, actor model.Principal, in CreateInput) (*Detail, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.AssignmentDate.IsZero() {
		return nil, apperr.Validation("assignment_date is required")
	}
	if err := policy.RequireTier(actor, policy.CreateLunchbox); err != nil {
		return nil, err
	}

	var created *model.Lunchbox
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := ownedChild(ctx, tx, actor, in.ChildID); err != nil {
			return err
		}

		lunchboxes := store.NewLunchboxStore(tx)
		var err error
		created, err = lunchboxes.Create(ctx, &model.Lunchbox{
			ChildID:        in.ChildID,
			Name:           in.Name,
			Description:    in.Description,
			AssignmentDate: in.AssignmentDate,
			Status:         model.LunchboxDraft,
			IsDefault:      in.IsDefault,
		})
		if err != nil {
			return err
		}

		foods := store.NewFoodItemStore(tx)
		for _, item := range in.Items {
			if err := requireFood(ctx, foods, item.FoodItemID); err != nil {
				return err
			}
			if _, err := addItem(ctx, lunchboxes, created.ID, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lunchbox created", "lunchbox_id", created.ID, "child_id", created.ChildID, "items", len(in.Items))
	s.publish(actor.ID(), "created", created, nil)

	return s.detail(ctx, s.db, created)
}

// AddLineItem adds quantity of a food to the lunchbox, accumulating onto an
// existing line for the same food.
func (s *Service) AddLineItem(ctx context.Context, actor model.Principal, lunchboxID int64, in ItemInput) (*model.LineItem, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := policy.RequireTier(actor, policy.CustomizeItems); err != nil {
		return nil, err
	}

	var (
		lb       *model.Lunchbox
		item     *model.LineItem
		advanced bool
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		lb, _, err = ownedLunchbox(ctx, tx, actor, lunchboxID)
		if err != nil {
			return err
		}
		if err := requireFood(ctx, store.NewFoodItemStore(tx), in.FoodItemID); err != nil {
			return err
		}
		if !lb.Status.Editable() {
			return apperr.Conflict("lunchbox in status %s cannot change items", lb.Status)
		}

		lunchboxes := store.NewLunchboxStore(tx)
		item, err = addItem(ctx, lunchboxes, lb.ID, in)
		if err != nil {
			return err
		}
		advanced, err = markCustomized(ctx, lunchboxes, lb)
		return err
	})
	if err != nil {
		return nil, err
	}

	if advanced {
		metrics.RecordTransition(string(model.LunchboxCustomized))
	}
	s.publish(actor.ID(), "item_added", lb, map[string]any{
		"food_item_id": item.FoodItemID,
		"quantity":     item.Quantity,
	})
	return item, nil
}

// RemoveLineItem deletes the line for foodItemID from the lunchbox.
func (s *Service) RemoveLineItem(ctx context.Context, actor model.Principal, lunchboxID, foodItemID int64) error {
	if err := policy.RequireTier(actor, policy.CustomizeItems); err != nil {
		return err
	}

	var (
		lb       *model.Lunchbox
		advanced bool
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		lb, _, err = ownedLunchbox(ctx, tx, actor, lunchboxID)
		if err != nil {
			return err
		}

		lunchboxes := store.NewLunchboxStore(tx)
		existing, err := lunchboxes.GetItem(ctx, lb.ID, foodItemID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFound("food item %d is not in lunchbox %d", foodItemID, lb.ID)
		}
		if !lb.Status.Editable() {
			return apperr.Conflict("lunchbox in status %s cannot change items", lb.Status)
		}

		if _, err := lunchboxes.DeleteItem(ctx, lb.ID, foodItemID); err != nil {
			return err
		}
		advanced, err = markCustomized(ctx, lunchboxes, lb)
		return err
	})
	if err != nil {
		return err
	}

	if advanced {
		metrics.RecordTransition(string(model.LunchboxCustomized))
	}
	s.publish(actor.ID(), "item_removed", lb, map[string]any{"food_item_id": foodItemID})
	return nil
}

// Update applies a partial update. Archived and Deleted cannot be reached
// through Update.
func (s *Service) Update(ctx context.Context, actor model.Principal, lunchboxID int64, patch model.LunchboxPatch) (*model.Lunchbox, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, err
	}
	if patch.AssignmentDate != nil && patch.AssignmentDate.IsZero() {
		return nil, apperr.Validation("assignment_date must be a valid date")
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperr.Validation("status %q is not a lunchbox status", *patch.Status)
		}
		if patch.Status.Terminal() {
			return nil, apperr.Validation("status %s is set by archiving or deleting the lunchbox", *patch.Status)
		}
	}

	var (
		before  model.LunchboxStatus
		updated *model.Lunchbox
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		lb, _, err := ownedLunchbox(ctx, tx, actor, lunchboxID)
		if err != nil {
			return err
		}
		if lb.Status.Terminal() {
			return apperr.Conflict("lunchbox in status %s cannot be modified", lb.Status)
		}
		if patch.Status != nil && !lb.Status.CanTransitionTo(*patch.Status) {
			return apperr.Conflict("cannot move lunchbox from %s to %s", lb.Status, *patch.Status)
		}
		before = lb.Status
		if patch.Empty() {
			updated = lb
			return nil
		}

		patch.Apply(lb)
		updated, err = store.NewLunchboxStore(tx).Update(ctx, lb)
		return err
	})
	if err != nil {
		return nil, err
	}

	if updated.Status != before {
		metrics.RecordTransition(string(updated.Status))
	}
	s.publish(actor.ID(), "updated", updated, nil)
	return updated, nil
}

// Confirm moves the lunchbox to Confirmed.
func (s *Service) Confirm(ctx context.Context, actor model.Principal, lunchboxID int64) (*model.Lunchbox, error) {
	return s.transition(ctx, &actor, lunchboxID, model.LunchboxConfirmed, "confirmed")
}

// Delete soft-deletes the lunchbox. Deleting twice is a no-op.
func (s *Service) Delete(ctx context.Context, actor model.Principal, lunchboxID int64) (*model.Lunchbox, error) {
	return s.transition(ctx, &actor, lunchboxID, model.LunchboxDeleted, "deleted")
}

// Archive moves the lunchbox to Archived without an ownership check.
func (s *Service) Archive(ctx context.Context, lunchboxID int64) (*model.Lunchbox, error) {
	return s.transition(ctx, nil, lunchboxID, model.LunchboxArchived, "archived")
}

// transition moves a lunchbox to status. A nil actor skips the ownership
// check. Requesting the current status returns the lunchbox unchanged.
func (s *Service) transition(ctx context.Context, actor *model.Principal, lunchboxID int64, to model.LunchboxStatus, action string) (*model.Lunchbox, error) {
	var (
		lb      *model.Lunchbox
		child   *model.Child
		changed bool
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if actor != nil {
			lb, child, err = ownedLunchbox(ctx, tx, *actor, lunchboxID)
		} else {
			lb, child, err = loadLunchbox(ctx, tx, lunchboxID)
		}
		if err != nil {
			return err
		}
		if lb.Status == to {
			return nil
		}
		if !lb.Status.CanTransitionTo(to) {
			return apperr.Conflict("cannot move lunchbox from %s to %s", lb.Status, to)
		}

		lunchboxes := store.NewLunchboxStore(tx)
		if err := lunchboxes.SetStatus(ctx, lb.ID, to); err != nil {
			return err
		}
		changed = true
		lb, err = lunchboxes.GetByID(ctx, lb.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.RecordTransition(string(to))
		s.logger.Info("lunchbox status changed", "lunchbox_id", lb.ID, "status", to)
		s.publish(child.ParentID, action, lb, nil)
	}
	return lb, nil
}

// ArchivePast archives every open lunchbox assigned before today and notifies
// each owning parent.
func (s *Service) ArchivePast(ctx context.Context, today model.Date) (int64, error) {
	type archivedBox struct {
		lb     model.Lunchbox
		parent int64
	}
	var archived []archivedBox
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rows, err := store.NewLunchboxStore(tx).ArchiveBefore(ctx, today)
		if err != nil {
			return err
		}
		children := store.NewChildStore(tx)
		parents := make(map[int64]int64)
		for _, lb := range rows {
			parent, ok := parents[lb.ChildID]
			if !ok {
				child, err := children.GetByID(ctx, lb.ChildID)
				if err != nil {
					return err
				}
				if child != nil {
					parent = child.ParentID
				}
				parents[lb.ChildID] = parent
			}
			archived = append(archived, archivedBox{lb: lb, parent: parent})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i := range archived {
		metrics.RecordTransition(string(model.LunchboxArchived))
		if archived[i].parent != 0 {
			s.publish(archived[i].parent, "archived", &archived[i].lb, nil)
		}
	}
	n := int64(len(archived))
	if n > 0 {
		s.logger.Info("archived past lunchboxes", "count", n, "before", today.String())
	}
	return n, nil
}

// Today returns the service clock's current date.
func (s *Service) Today() model.Date {
	return model.DateOf(s.now())
}

func (s *Service) Get(ctx context.Context, actor model.Principal, lunchboxID int64) (*Detail, error) {
	lb, _, err := ownedLunchbox(ctx, s.db, actor, lunchboxID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, s.db, lb)
}

func (s *Service) Summary(ctx context.Context, actor model.Principal, lunchboxID int64) (nutrition.Summary, error) {
	d, err := s.Get(ctx, actor, lunchboxID)
	if err != nil {
		return nutrition.Summary{}, err
	}
	return d.Summary, nil
}

// GetByDate returns the child's lunchbox assigned on day.
func (s *Service) GetByDate(ctx context.Context, actor model.Principal, childID int64, day model.Date) (*Detail, error) {
	if _, err := ownedChild(ctx, s.db, actor, childID); err != nil {
		return nil, err
	}
	lb, err := store.NewLunchboxStore(s.db).GetByChildAndDate(ctx, childID, day)
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, apperr.NotFound("no lunchbox for child %d on %s", childID, day)
	}
	return s.detail(ctx, s.db, lb)
}

// List returns lunchboxes of the actor's children, newest assignment first.
func (s *Service) List(ctx context.Context, actor model.Principal, f ListFilter) ([]model.Lunchbox, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("status %q is not a lunchbox status", f.Status)
	}
	if f.ChildID != 0 {
		if _, err := ownedChild(ctx, s.db, actor, f.ChildID); err != nil {
			return nil, err
		}
	}

	lunchboxes, err := store.NewLunchboxStore(s.db).List(ctx, store.LunchboxFilter{
		ParentID: actor.ID(),
		ChildID:  f.ChildID,
		Status:   f.Status,
		Page:     f.Page,
	})
	if err != nil {
		return nil, err
	}
	if lunchboxes == nil {
		lunchboxes = []model.Lunchbox{}
	}
	return lunchboxes, nil
}

func (s *Service) detail(ctx context.Context, db store.DBTX, lb *model.Lunchbox) (*Detail, error) {
	lines, err := resolveLines(ctx, db, lb.ID)
	if err != nil {
		return nil, err
	}

	d := &Detail{
		Lunchbox: *lb,
		Items:    make([]ItemDetail, 0, len(lines)),
		Summary:  nutrition.Summarize(lines),
	}
	for _, l := range lines {
		d.Items = append(d.Items, ItemDetail{LineItem: l.Item, Food: l.Food})
	}
	return d, nil
}

func resolveLines(ctx context.Context, db store.DBTX, lunchboxID int64) ([]nutrition.Line, error) {
	items, err := store.NewLunchboxStore(db).ListItems(ctx, lunchboxID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.FoodItemID
	}
	foods, err := store.NewFoodItemStore(db).GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	return nutrition.Resolve(items, foods), nil
}

func (s *Service) publish(userID int64, action string, lb *model.Lunchbox, extra map[string]any) {
	if s.notify == nil {
		return
	}
	if extra == nil {
		extra = make(map[string]any, 2)
	}
	extra["child_id"] = lb.ChildID
	extra["status"] = lb.Status
	s.notify.SendToUser(userID, websocket.NewMessage("lunchbox", action, lb.ID, extra))
}

// markCustomized moves a Draft or Assigned lunchbox to Customized after its
// items changed. It reports whether the status moved.
func markCustomized(ctx context.Context, lunchboxes *store.LunchboxStore, lb *model.Lunchbox) (bool, error) {
	if lb.Status != model.LunchboxDraft && lb.Status != model.LunchboxAssigned {
		return false, nil
	}
	if err := lunchboxes.SetStatus(ctx, lb.ID, model.LunchboxCustomized); err != nil {
		return false, err
	}
	lb.Status = model.LunchboxCustomized
	return true, nil
}

// addItem accumulates in onto the lunchbox's line for the same food, refusing
// totals above MaxQuantity.
func addItem(ctx context.Context, lunchboxes *store.LunchboxStore, lunchboxID int64, in ItemInput) (*model.LineItem, error) {
	existing, err := lunchboxes.GetItem(ctx, lunchboxID, in.FoodItemID)
	if err != nil {
		return nil, err
	}
	total := in.quantity()
	if existing != nil {
		total += existing.Quantity
	}
	if total > MaxQuantity {
		return nil, apperr.Validation("quantity for food item %d would be %d, max is %d", in.FoodItemID, total, MaxQuantity)
	}
	return lunchboxes.UpsertItem(ctx, lunchboxID, in.FoodItemID, in.quantity(), in.Notes)
}

func requireFood(ctx context.Context, foods *store.FoodItemStore, id int64) error {
	f, err := foods.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return apperr.NotFound("food item %d not found", id)
	}
	return nil
}

func ownedChild(ctx context.Context, db store.DBTX, actor model.Principal, childID int64) (*model.Child, error) {
	child, err := store.NewChildStore(db).GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, apperr.NotFound("child %d not found", childID)
	}
	if err := policy.RequireOwner(actor, child); err != nil {
		return nil, err
	}
	return child, nil
}

func loadLunchbox(ctx context.Context, db store.DBTX, id int64) (*model.Lunchbox, *model.Child, error) {
	lb, err := store.NewLunchboxStore(db).GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if lb == nil {
		return nil, nil, apperr.NotFound("lunchbox %d not found", id)
	}
	child, err := store.NewChildStore(db).GetByID(ctx, lb.ChildID)
	if err != nil {
		return nil, nil, err
	}
	if child == nil {
		return nil, nil, apperr.NotFound("lunchbox %d not found", id)
	}
	return lb, child, nil
}

func ownedLunchbox(ctx context.Context, db store.DBTX, actor model.Principal, id int64) (*model.Lunchbox, *model.Child, error) {
	lb, child, err := loadLunchbox(ctx, db, id)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.RequireOwner(actor, child); err != nil {
		return nil, nil, err
	}
	return lb, child, nil
}
