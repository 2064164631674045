package account

import (
	"context"
	"strings"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/model"
	"github.com/dukerupert/nutribox/internal/policy"
	"github.com/dukerupert/nutribox/internal/store"
	"github.com/dukerupert/nutribox/internal/validate"
)

type ChildInput struct {
	FirstName   string      `json:"first_name" validate:"required,min=2,max=100"`
	LastName    string      `json:"last_name" validate:"required,min=2,max=100"`
	BirthDate   *model.Date `json:"birth_date"`
	SchoolGrade string      `json:"school_grade" validate:"max=50"`
	School      string      `json:"school" validate:"max=150"`
	Notes       string      `json:"notes"`
}

func (s *Service) CreateChild(ctx context.Context, actor model.Principal, in ChildInput) (*model.Child, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.BirthDate != nil && in.BirthDate.After(model.DateOf(s.now())) {
		return nil, apperr.Validation("birth_date cannot be in the future")
	}

	c, err := store.NewChildStore(s.db).Create(ctx, &model.Child{
		ParentID:    actor.ID(),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		BirthDate:   in.BirthDate,
		SchoolGrade: in.SchoolGrade,
		School:      in.School,
		Notes:       in.Notes,
		Active:      true,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("child created", "child_id", c.ID, "parent_id", c.ParentID)
	return c, nil
}

func (s *Service) ListChildren(ctx context.Context, actor model.Principal) ([]model.Child, error) {
	children, err := store.NewChildStore(s.db).ListByParent(ctx, actor.ID())
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []model.Child{}
	}
	return children, nil
}

func (s *Service) GetChild(ctx context.Context, actor model.Principal, id int64) (*model.Child, error) {
	return s.ownedChild(ctx, store.NewChildStore(s.db), actor, id)
}

func (s *Service) UpdateChild(ctx context.Context, actor model.Principal, id int64, patch model.ChildPatch) (*model.Child, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, err
	}
	if patch.BirthDate != nil && patch.BirthDate.After(model.DateOf(s.now())) {
		return nil, apperr.Validation("birth_date cannot be in the future")
	}

	children := store.NewChildStore(s.db)
	c, err := s.ownedChild(ctx, children, actor, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(c)
	return children.Update(ctx, c)
}

// DeleteChild removes the child with its lunchboxes and restrictions.
func (s *Service) DeleteChild(ctx context.Context, actor model.Principal, id int64) error {
	children := store.NewChildStore(s.db)
	if _, err := s.ownedChild(ctx, children, actor, id); err != nil {
		return err
	}
	if err := children.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("child deleted", "child_id", id, "parent_id", actor.ID())
	return nil
}

func (s *Service) ownedChild(ctx context.Context, children *store.ChildStore, actor model.Principal, id int64) (*model.Child, error) {
	c, err := children.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("child %d not found", id)
	}
	if err := policy.RequireOwner(actor, c); err != nil {
		return nil, err
	}
	return c, nil
}
