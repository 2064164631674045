// Package catalog manages the food catalog. Every write appends an audit
// entry in the same transaction as the change.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/database"
	"github.com/dukerupert/nutribox/internal/metrics"
	"github.com/dukerupert/nutribox/internal/model"
	"github.com/dukerupert/nutribox/internal/policy"
	"github.com/dukerupert/nutribox/internal/store"
	"github.com/dukerupert/nutribox/internal/validate"
	"github.com/dukerupert/nutribox/internal/websocket"
)

// MinSearchLength is the shortest accepted search query.
const MinSearchLength = 2

// Broadcaster pushes catalog changes to every connected client.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type Service struct {
	db     *sql.DB
	events Broadcaster
	logger *slog.Logger
}

// NewService creates a Service. events may be nil.
func NewService(db *sql.DB, events Broadcaster, logger *slog.Logger) *Service {
	return &Service{db: db, events: events, logger: logger}
}

type FoodInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Category    string  `json:"category" validate:"required,min=1,max=50"`
	Description string  `json:"description" validate:"max=500"`
	Calories    float64 `json:"calories" validate:"gte=0"`
	Protein     float64 `json:"protein" validate:"gte=0"`
	Carbs       float64 `json:"carbs" validate:"gte=0"`
	Fat         float64 `json:"fat" validate:"gte=0"`
	Fiber       float64 `json:"fiber" validate:"gte=0"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url,max=500"`
}

type Filter struct {
	Status   model.FoodStatus
	Category string
	Page     store.Page
}

func (s *Service) List(ctx context.Context, f Filter) ([]model.FoodItem, error) {
	if f.Status != "" && f.Status != model.FoodActive && f.Status != model.FoodInactive {
		return nil, apperr.Validation("status %q is not a food status", f.Status)
	}
	return s.list(ctx, store.FoodFilter{Status: f.Status, Category: f.Category, Page: f.Page})
}

func (s *Service) ListActive(ctx context.Context, page store.Page) ([]model.FoodItem, error) {
	return s.list(ctx, store.FoodFilter{Status: model.FoodActive, Page: page})
}

// Search matches active items whose name or category contains query,
// ignoring case.
func (s *Service) Search(ctx context.Context, query string, page store.Page) ([]model.FoodItem, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchLength {
		return nil, apperr.Validation("search query must be at least %d characters", MinSearchLength)
	}
	return s.list(ctx, store.FoodFilter{Status: model.FoodActive, Query: query, Page: page})
}

// ListByCategory returns active items in category.
func (s *Service) ListByCategory(ctx context.Context, category string, page store.Page) ([]model.FoodItem, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.Validation("category is required")
	}
	return s.list(ctx, store.FoodFilter{Status: model.FoodActive, Category: category, Page: page})
}

func (s *Service) list(ctx context.Context, f store.FoodFilter) ([]model.FoodItem, error) {
	items, err := store.NewFoodItemStore(s.db).List(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.FoodItem{}
	}
	return items, nil
}

// Get returns the item whatever its status.
func (s *Service) Get(ctx context.Context, id int64) (*model.FoodItem, error) {
	return getFood(ctx, store.NewFoodItemStore(s.db), id)
}

func (s *Service) Create(ctx context.Context, actor model.Principal, in FoodInput) (*model.FoodItem, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var created *model.FoodItem
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		created, err = store.NewFoodItemStore(tx).Create(ctx, &model.FoodItem{
			Name:        strings.TrimSpace(in.Name),
			Category:    strings.TrimSpace(in.Category),
			Description: in.Description,
			Calories:    in.Calories,
			Protein:     in.Protein,
			Carbs:       in.Carbs,
			Fat:         in.Fat,
			Fiber:       in.Fiber,
			Status:      model.FoodActive,
			ImageURL:    in.ImageURL,
		})
		if err != nil {
			return err
		}
		return appendHistory(ctx, tx, created.ID, model.HistoryCreated, actor, nil, "")
	})
	if err != nil {
		return nil, err
	}

	s.changed(created.ID, model.HistoryCreated)
	return created, nil
}

// Update applies patch and records the prior nutritional facts.
func (s *Service) Update(ctx context.Context, actor model.Principal, id int64, patch model.FoodItemPatch) (*model.FoodItem, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var updated *model.FoodItem
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		foods := store.NewFoodItemStore(tx)
		current, err := getFood(ctx, foods, id)
		if err != nil {
			return err
		}

		prior := map[string]any{
			"name":     current.Name,
			"category": current.Category,
			"calories": current.Calories,
			"protein":  current.Protein,
			"carbs":    current.Carbs,
			"fat":      current.Fat,
			"fiber":    current.Fiber,
		}
		patch.Apply(current)
		if updated, err = foods.Update(ctx, current); err != nil {
			return err
		}
		return appendHistory(ctx, tx, id, model.HistoryModified, actor, prior, "")
	})
	if err != nil {
		return nil, err
	}

	s.changed(id, model.HistoryModified)
	return updated, nil
}

// Delete marks the item Inactive. Existing line items keep referencing it.
func (s *Service) Delete(ctx context.Context, actor model.Principal, id int64, reason string) (*model.FoodItem, error) {
	return s.setStatus(ctx, actor, id, model.FoodInactive, model.HistoryDeleted, reason)
}

// Restore marks an Inactive item Active again.
func (s *Service) Restore(ctx context.Context, actor model.Principal, id int64, reason string) (*model.FoodItem, error) {
	return s.setStatus(ctx, actor, id, model.FoodActive, model.HistoryRestored, reason)
}

// setStatus is a no-op without an audit entry when the item already has
// status.
func (s *Service) setStatus(ctx context.Context, actor model.Principal, id int64, status model.FoodStatus, action model.HistoryAction, reason string) (*model.FoodItem, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		item    *model.FoodItem
		changed bool
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		foods := store.NewFoodItemStore(tx)
		current, err := getFood(ctx, foods, id)
		if err != nil {
			return err
		}
		if current.Status == status {
			item = current
			return nil
		}

		var prior map[string]any
		if action == model.HistoryDeleted {
			prior = map[string]any{
				"name":     current.Name,
				"category": current.Category,
				"status":   current.Status,
			}
		}
		if err := foods.SetStatus(ctx, id, status); err != nil {
			return err
		}
		if err := appendHistory(ctx, tx, id, action, actor, prior, reason); err != nil {
			return err
		}
		changed = true
		item, err = foods.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.changed(id, action)
	}
	return item, nil
}

// History returns the audit trail of an item oldest first.
func (s *Service) History(ctx context.Context, actor model.Principal, id int64) ([]model.HistoryEntry, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := getFood(ctx, store.NewFoodItemStore(s.db), id); err != nil {
		return nil, err
	}
	entries, err := store.NewHistoryStore(s.db).ListByFoodItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return entries, nil
}

func (s *Service) changed(id int64, action model.HistoryAction) {
	metrics.RecordCatalogChange(string(action))
	s.logger.Info("catalog changed", "food_item_id", id, "action", action)
	if s.events != nil {
		s.events.Broadcast(websocket.NewMessage("food_item", actionName(action), id, nil))
	}
}

func actionName(a model.HistoryAction) string {
	switch a {
	case model.HistoryCreated:
		return "created"
	case model.HistoryModified:
		return "updated"
	case model.HistoryDeleted:
		return "deleted"
	case model.HistoryRestored:
		return "restored"
	}
	return strings.ToLower(string(a))
}

func getFood(ctx context.Context, foods *store.FoodItemStore, id int64) (*model.FoodItem, error) {
	f, err := foods.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, apperr.NotFound("food item %d not found", id)
	}
	return f, nil
}

func appendHistory(ctx context.Context, tx *sql.Tx, foodID int64, action model.HistoryAction, actor model.Principal, prior map[string]any, reason string) error {
	entry := &model.HistoryEntry{FoodItemID: foodID, Action: action}

	who := strconv.FormatInt(actor.ID(), 10)
	entry.Actor = &who
	if prior != nil {
		data, err := json.Marshal(prior)
		if err != nil {
			return fmt.Errorf("marshal prior state: %w", err)
		}
		snapshot := string(data)
		entry.PriorState = &snapshot
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		entry.Reason = &reason
	}

	_, err := store.NewHistoryStore(tx).Append(ctx, entry)
	return err
}
