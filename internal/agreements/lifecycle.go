package agreements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
	"github.com/ishantswami13-crypto/bms-backend/internal/users"
)

// ErrNoVacancy is returned when an accepted agreement's apartment has no
// available flat left. The agreement is put back to pending.
var ErrNoVacancy = fiber.NewError(fiber.StatusConflict, "no available flat")

type Repository interface {
	Insert(ctx context.Context, a *Agreement) error
	List(ctx context.Context) ([]Agreement, error)
	ListByEmail(ctx context.Context, email string) ([]Agreement, error)
	FindByID(ctx context.Context, id string) (Agreement, error)
	Decide(ctx context.Context, id string, status Status, at time.Time) (Agreement, error)
	Reopen(ctx context.Context, id string) error
}

// Inventory decrements an apartment's availableFlat, failing with
// apperr.ErrConflict at zero. ReleaseFlat gives a taken flat back.
type Inventory interface {
	TakeFlat(ctx context.Context, apartID string) error
	ReleaseFlat(ctx context.Context, apartID string) error
}

// Decider applies an admin decision and its side effects on the tenant's
// role and the apartment's vacancy count.
type Decider struct {
	Agreements Repository
	Users      users.Repository
	Inventory  Inventory
	Now        func() time.Time
}

// Decide records the decision and applies its side effects. When a side
// effect fails the agreement is reopened and a taken flat is released, so a
// retry starts from the same state.
func (d *Decider) Decide(ctx context.Context, id string, status Status) (Agreement, error) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	a, err := d.Agreements.Decide(ctx, id, status, now().UTC())
	if err != nil {
		return Agreement{}, fmt.Errorf("agreement: %w", err)
	}

	switch status {
	case StatusAccepted:
		tookFlat := false
		if a.ApartID != "" {
			if err := d.Inventory.TakeFlat(ctx, a.ApartID); err != nil {
				if errors.Is(err, apperr.ErrConflict) {
					err = ErrNoVacancy
				}
				return Agreement{}, d.undo(ctx, id, a.ApartID, false, err)
			}
			tookFlat = true
		}
		if err := d.promote(ctx, a.UserEmail); err != nil {
			return Agreement{}, d.undo(ctx, id, a.ApartID, tookFlat, err)
		}
	case StatusRejected:
		if err := d.demote(ctx, a.UserEmail); err != nil {
			return Agreement{}, d.undo(ctx, id, a.ApartID, false, err)
		}
	}
	return a, nil
}

func (d *Decider) undo(ctx context.Context, id, apartID string, releaseFlat bool, cause error) error {
	errs := []error{cause}
	if releaseFlat {
		if err := d.Inventory.ReleaseFlat(ctx, apartID); err != nil {
			errs = append(errs, fmt.Errorf("release flat: %w", err))
		}
	}
	if err := d.Agreements.Reopen(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("reopen agreement: %w", err))
	}
	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}

// promote walks user -> pending -> member. Members and admins are left alone.
func (d *Decider) promote(ctx context.Context, email string) error {
	u, err := d.Users.FindByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	role := u.EffectiveRole()
	if role == users.RoleUser {
		if _, err := users.ChangeRole(ctx, d.Users, email, users.RolePending); err != nil {
			return err
		}
		role = users.RolePending
	}
	if role != users.RolePending {
		return nil
	}
	if _, err := users.ChangeRole(ctx, d.Users, email, users.RoleMember); err != nil {
		if u.EffectiveRole() == users.RoleUser {
			if _, rerr := users.ChangeRole(ctx, d.Users, email, users.RoleUser); rerr != nil {
				return errors.Join(err, rerr)
			}
		}
		return err
	}
	return nil
}

// demote sends a pending requester back to user.
func (d *Decider) demote(ctx context.Context, email string) error {
	u, err := d.Users.FindByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.EffectiveRole() != users.RolePending {
		return nil
	}
	_, err = users.ChangeRole(ctx, d.Users, email, users.RoleUser)
	return err
}
