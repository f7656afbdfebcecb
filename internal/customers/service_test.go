package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/db/dbtest"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

func TestUpdateAddressPersistsProfile(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	customer, err := repo.Create(ctx, CreateCustomerDTO{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	actor := pkgAuth.Actor{AccountID: customer.ID, Role: enums.AccountRoleCustomer}

	got, err := svc.Get(ctx, actor, customer.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Address)

	phone := "555-0100"
	addr := types.ShippingAddress{FullName: "Ada L", Line1: "1 Kiln Rd", City: "Stoke", State: "ST", PostalCode: "ST1"}
	got, err = svc.UpdateAddress(ctx, actor, UpdateAddressRequest{Address: addr, Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, got.Address)
	assert.Equal(t, "Stoke", got.Address.City)
	require.NotNil(t, got.Phone)
	assert.Equal(t, phone, *got.Phone)

	names, err := repo.Names(ctx, []uuid.UUID{customer.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{customer.ID: "Ada"}, names)
}

func TestUpdateAddressValidation(t *testing.T) {
	client := dbtest.New(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	actor := pkgAuth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleCustomer}

	_, err = svc.UpdateAddress(context.Background(), actor, UpdateAddressRequest{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateAddress(context.Background(), actor, UpdateAddressRequest{
		Address: types.ShippingAddress{Line1: "1 Kiln Rd", City: "Stoke", PostalCode: "ST1"},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.Get(context.Background(), actor, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}
