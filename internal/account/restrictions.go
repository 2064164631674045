package account

import (
	"context"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/model"
	"github.com/dukerupert/nutribox/internal/policy"
	"github.com/dukerupert/nutribox/internal/store"
	"github.com/dukerupert/nutribox/internal/validate"
)

type RestrictionInput struct {
	Kind        model.RestrictionKind `json:"kind" validate:"required,oneof=Alergia Intolerancia Preferencia"`
	Description string                `json:"description" validate:"required,min=2"`
	Severity    model.Severity        `json:"severity" validate:"omitempty,oneof=Alta Media Baja"`
}

type ExceptionInput struct {
	Reason    string      `json:"reason" validate:"required,min=2"`
	StartDate model.Date  `json:"start_date"`
	EndDate   *model.Date `json:"end_date"`
}

func (s *Service) CreateRestriction(ctx context.Context, actor model.Principal, childID int64, in RestrictionInput) (*model.Restriction, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := policy.RequireTier(actor, policy.ManageRestrictions); err != nil {
		return nil, err
	}
	if _, err := s.ownedChild(ctx, store.NewChildStore(s.db), actor, childID); err != nil {
		return nil, err
	}

	severity := in.Severity
	if severity == "" {
		severity = model.SeverityMedium
	}
	r, err := store.NewRestrictionStore(s.db).Create(ctx, &model.Restriction{
		ChildID:     childID,
		Kind:        in.Kind,
		Description: in.Description,
		Severity:    severity,
		Active:      true,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("restriction created", "restriction_id", r.ID, "child_id", childID, "kind", r.Kind)
	return r, nil
}

func (s *Service) ListRestrictions(ctx context.Context, actor model.Principal, childID int64) ([]model.Restriction, error) {
	if err := policy.RequireTier(actor, policy.ManageRestrictions); err != nil {
		return nil, err
	}
	if _, err := s.ownedChild(ctx, store.NewChildStore(s.db), actor, childID); err != nil {
		return nil, err
	}
	restrictions, err := store.NewRestrictionStore(s.db).ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if restrictions == nil {
		restrictions = []model.Restriction{}
	}
	return restrictions, nil
}

func (s *Service) UpdateRestriction(ctx context.Context, actor model.Principal, id int64, patch model.RestrictionPatch) (*model.Restriction, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, err
	}
	if err := policy.RequireTier(actor, policy.ManageRestrictions); err != nil {
		return nil, err
	}
	restrictions := store.NewRestrictionStore(s.db)
	r, err := s.ownedRestriction(ctx, restrictions, actor, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(r)
	return restrictions.Update(ctx, r)
}

// DeleteRestriction removes the restriction and its exceptions.
func (s *Service) DeleteRestriction(ctx context.Context, actor model.Principal, id int64) error {
	if err := policy.RequireTier(actor, policy.ManageRestrictions); err != nil {
		return err
	}
	restrictions := store.NewRestrictionStore(s.db)
	if _, err := s.ownedRestriction(ctx, restrictions, actor, id); err != nil {
		return err
	}
	return restrictions.Delete(ctx, id)
}

// AddException records a period in which the restriction is lifted. The
// acting user is recorded as the authorizer.
func (s *Service) AddException(ctx context.Context, actor model.Principal, restrictionID int64, in ExceptionInput) (*model.RestrictionException, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() {
		return nil, apperr.Validation("start_date is required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return nil, apperr.Validation("end_date must not be before start_date")
	}
	if err := policy.RequireTier(actor, policy.ManageRestrictions); err != nil {
		return nil, err
	}

	restrictions := store.NewRestrictionStore(s.db)
	if _, err := s.ownedRestriction(ctx, restrictions, actor, restrictionID); err != nil {
		return nil, err
	}
	return restrictions.CreateException(ctx, &model.RestrictionException{
		RestrictionID: restrictionID,
		Reason:        in.Reason,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		AuthorizedBy:  actor.User.Email,
	})
}

func (s *Service) ListExceptions(ctx context.Context, actor model.Principal, restrictionID int64) ([]model.RestrictionException, error) {
	if err := policy.RequireTier(actor, policy.ManageRestrictions); err != nil {
		return nil, err
	}
	restrictions := store.NewRestrictionStore(s.db)
	if _, err := s.ownedRestriction(ctx, restrictions, actor, restrictionID); err != nil {
		return nil, err
	}
	exceptions, err := restrictions.ListExceptions(ctx, restrictionID)
	if err != nil {
		return nil, err
	}
	if exceptions == nil {
		exceptions = []model.RestrictionException{}
	}
	return exceptions, nil
}

func (s *Service) ownedRestriction(ctx context.Context, restrictions *store.RestrictionStore, actor model.Principal, id int64) (*model.Restriction, error) {
	r, err := restrictions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("restriction %d not found", id)
	}
	if _, err := s.ownedChild(ctx, store.NewChildStore(s.db), actor, r.ChildID); err != nil {
		return nil, err
	}
	return r, nil
}
