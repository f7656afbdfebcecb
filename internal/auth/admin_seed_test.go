package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clayhaus/clayhaus-backend/internal/sellers"
	"github.com/clayhaus/clayhaus-backend/pkg/config"
	"github.com/clayhaus/clayhaus-backend/pkg/db/dbtest"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
)

type stubLock struct {
	acquire  bool
	acquired int
	released int
}

func (l *stubLock) Acquire(context.Context) (bool, error) {
	if l.acquire {
		l.acquired++
	}
	return l.acquire, nil
}

func (l *stubLock) Release(context.Context) error {
	l.released++
	return nil
}

var adminCfg = config.AdminConfig{Email: "Admin@Clayhaus.local", Password: "admin-password", Name: "Admin", ShopName: "Clayhaus"}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	client := dbtest.New(t)
	repo := sellers.NewRepository(client.DB())
	l := &stubLock{acquire: true}
	params := AdminSeedParams{Sellers: repo, Admin: adminCfg, PasswordConfig: testPassword, Lock: l}

	require.NoError(t, EnsureAdmin(context.Background(), params))
	require.NoError(t, EnsureAdmin(context.Background(), params))

	var rows []models.Seller
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.AccountRoleAdmin, rows[0].Role)
	assert.True(t, rows[0].Approved)
	assert.Equal(t, "admin@clayhaus.local", rows[0].Email)
	assert.Equal(t, 2, l.acquired)
	assert.Equal(t, 2, l.released)
}

func TestEnsureAdminSkipsWhenLockHeld(t *testing.T) {
	client := dbtest.New(t)
	params := AdminSeedParams{Sellers: sellers.NewRepository(client.DB()), Admin: adminCfg, PasswordConfig: testPassword, Lock: &stubLock{}}

	require.NoError(t, EnsureAdmin(context.Background(), params))

	var count int64
	require.NoError(t, client.DB().Model(&models.Seller{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnsureAdminRequiresPasswordAndAdminRole(t *testing.T) {
	client := dbtest.New(t)
	repo := sellers.NewRepository(client.DB())

	noPassword := adminCfg
	noPassword.Password = ""
	assert.Error(t, EnsureAdmin(context.Background(), AdminSeedParams{Sellers: repo, Admin: noPassword, PasswordConfig: testPassword}))

	_, err := repo.Create(context.Background(), sellers.CreateSellerDTO{Name: "x", Email: "admin@clayhaus.local", PasswordHash: "h", ShopName: "taken"})
	require.NoError(t, err)
	assert.Error(t, EnsureAdmin(context.Background(), AdminSeedParams{Sellers: repo, Admin: adminCfg, PasswordConfig: testPassword}))
}

func TestEnsureAdminLeavesExistingAdminUnderOtherEmail(t *testing.T) {
	client := dbtest.New(t)
	repo := sellers.NewRepository(client.DB())
	_, err := repo.Create(context.Background(), sellers.CreateSellerDTO{
		Name:         "Founder",
		Email:        "founder@clayhaus.local",
		PasswordHash: "h",
		ShopName:     "Clayhaus HQ",
		Role:         enums.AccountRoleAdmin,
		Approved:     true,
	})
	require.NoError(t, err)

	require.NoError(t, EnsureAdmin(context.Background(), AdminSeedParams{Sellers: repo, Admin: adminCfg, PasswordConfig: testPassword}))

	var rows []models.Seller
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "founder@clayhaus.local", rows[0].Email)
}
