package account

import (
	"context"
	"database/sql"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/database"
	"github.com/dukerupert/nutribox/internal/model"
	"github.com/dukerupert/nutribox/internal/store"
	"github.com/dukerupert/nutribox/internal/validate"
)

type AddressInput struct {
	Label        string `json:"label" validate:"max=50"`
	Line1        string `json:"line1" validate:"required,min=5,max=200"`
	Line2        string `json:"line2" validate:"max=200"`
	Neighborhood string `json:"neighborhood" validate:"max=100"`
	City         string `json:"city" validate:"required,min=2,max=100"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	Reference    string `json:"reference"`
	IsPrimary    bool   `json:"is_primary"`
}

// CreateAddress adds an address while the user is under their tier's
// limit. The first address is always primary.
func (s *Service) CreateAddress(ctx context.Context, actor model.Principal, in AddressInput) (*model.Address, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	var created *model.Address
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		addresses := store.NewAddressStore(tx)
		n, err := addresses.CountByUser(ctx, actor.ID())
		if err != nil {
			return err
		}
		if n >= actor.Tier.MaxAddresses {
			return apperr.Permission("your membership allows at most %d addresses", actor.Tier.MaxAddresses)
		}

		created, err = addresses.Create(ctx, &model.Address{
			UserID:       actor.ID(),
			Label:        in.Label,
			Line1:        in.Line1,
			Line2:        in.Line2,
			Neighborhood: in.Neighborhood,
			City:         in.City,
			PostalCode:   in.PostalCode,
			Reference:    in.Reference,
			IsPrimary:    in.IsPrimary || n == 0,
		})
		if err != nil {
			return err
		}
		if created.IsPrimary {
			return addresses.ClearPrimary(ctx, actor.ID(), created.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) ListAddresses(ctx context.Context, actor model.Principal) ([]model.Address, error) {
	addresses, err := store.NewAddressStore(s.db).ListByUser(ctx, actor.ID())
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	return addresses, nil
}

func (s *Service) UpdateAddress(ctx context.Context, actor model.Principal, id int64, patch model.AddressPatch) (*model.Address, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, err
	}

	var updated *model.Address
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		addresses := store.NewAddressStore(tx)
		a, err := ownedAddress(ctx, addresses, actor, id)
		if err != nil {
			return err
		}
		patch.Apply(a)
		if updated, err = addresses.Update(ctx, a); err != nil {
			return err
		}
		if updated.IsPrimary {
			return addresses.ClearPrimary(ctx, actor.ID(), updated.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteAddress(ctx context.Context, actor model.Principal, id int64) error {
	addresses := store.NewAddressStore(s.db)
	if _, err := ownedAddress(ctx, addresses, actor, id); err != nil {
		return err
	}
	return addresses.Delete(ctx, id)
}

func ownedAddress(ctx context.Context, addresses *store.AddressStore, actor model.Principal, id int64) (*model.Address, error) {
	a, err := addresses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("address %d not found", id)
	}
	if a.UserID != actor.ID() {
		return nil, apperr.Forbidden("you do not have access to this address")
	}
	return a, nil
}
