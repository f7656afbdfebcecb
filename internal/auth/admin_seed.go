package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/clayhaus/clayhaus-backend/internal/sellers"
	"github.com/clayhaus/clayhaus-backend/pkg/config"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	"github.com/clayhaus/clayhaus-backend/pkg/lock"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/security"
)

type adminRepository interface {
	sellerRepository
	FindByRole(ctx context.Context, role enums.AccountRole) (*models.Seller, error)
}

// AdminSeedParams configures the startup admin bootstrap.
type AdminSeedParams struct {
	Sellers        adminRepository
	Admin          config.AdminConfig
	PasswordConfig config.PasswordConfig
	Lock           lock.Lock
	Logger         *logger.Logger
}

// EnsureAdmin creates the marketplace admin account when it is missing. It
// runs under the startup lock so only one replica attempts the insert, and a
// duplicate-key race still counts as success.
func EnsureAdmin(ctx context.Context, params AdminSeedParams) error {
	if params.Sellers == nil {
		return fmt.Errorf("seller repository is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	run := func(ctx context.Context) error {
		return ensureAdmin(ctx, params, logg)
	}
	if params.Lock == nil {
		return run(ctx)
	}
	acquired, err := lock.WithLock(ctx, params.Lock, run)
	if err != nil {
		return err
	}
	if !acquired {
		logg.Info(ctx, "admin.seed.skipped_locked")
	}
	return nil
}

func ensureAdmin(ctx context.Context, params AdminSeedParams, logg *logger.Logger) error {
	email := normalizeEmail(params.Admin.Email)
	if email == "" {
		return fmt.Errorf("admin email is required")
	}
	ctx = logg.WithField(ctx, "admin_email", email)

	current, err := params.Sellers.FindByRole(ctx, enums.AccountRoleAdmin)
	switch {
	case err == nil && current.Email != email:
		logg.Warn(logg.WithField(ctx, "existing_admin_id", current.ID.String()), "admin.seed.other_admin_present")
		return nil
	case err != nil && !db.IsNotFound(err):
		return fmt.Errorf("lookup admin role: %w", err)
	}

	if existing, err := params.Sellers.FindByEmail(ctx, email); err == nil {
		if existing.Role != enums.AccountRoleAdmin {
			return fmt.Errorf("admin email %s belongs to a seller account", email)
		}
		return nil
	} else if !db.IsNotFound(err) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	if strings.TrimSpace(params.Admin.Password) == "" {
		return fmt.Errorf("admin password is required to seed %s", email)
	}
	hash, err := security.HashPassword(params.Admin.Password, params.PasswordConfig)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = params.Sellers.Create(ctx, sellers.CreateSellerDTO{
		Name:         params.Admin.Name,
		Email:        email,
		PasswordHash: hash,
		ShopName:     params.Admin.ShopName,
		Role:         enums.AccountRoleAdmin,
		Approved:     true,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			logg.Info(ctx, "admin.seed.already_created")
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	logg.Info(ctx, "admin.seed.created")
	return nil
}
