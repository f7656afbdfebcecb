package sellers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/dbtest"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.New(t)
	emitter := outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop())
	svc, err := NewService(ServiceParams{DB: client, Repo: NewRepository(client.DB()), Outbox: emitter})
	require.NoError(t, err)
	return svc, client
}

func seedSeller(t *testing.T, client *db.Client, shop string, approved, custom bool) *models.Seller {
	t.Helper()
	seller := &models.Seller{
		Name:                 shop + " owner",
		Email:                shop + "@example.com",
		PasswordHash:         "hash",
		ShopName:             shop,
		Approved:             approved,
		CustomizationEnabled: custom,
	}
	require.NoError(t, client.DB().Create(seller).Error)
	return seller
}

var admin = pkgAuth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleAdmin}

func TestApproveEmitsEventOnce(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	seller := seedSeller(t, client, "kiln", false, false)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	out, err := svc.Approve(ctx, admin, seller.ID)
	require.NoError(t, err)
	assert.True(t, out.Approved)

	_, err = svc.Approve(ctx, admin, seller.ID)
	require.NoError(t, err)

	var events []models.OutboxEvent
	require.NoError(t, client.DB().Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventSellerApproved, events[0].EventType)

	pending, err = svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApproveRequiresAdminAndExistingSeller(t *testing.T) {
	svc, client := newTestService(t)
	seller := seedSeller(t, client, "wheel", false, false)

	_, err := svc.Approve(context.Background(), pkgAuth.Actor{AccountID: seller.ID, Role: enums.AccountRoleSeller}, seller.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = svc.Approve(context.Background(), admin, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestSetCustomizationTogglesAndSets(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	seller := seedSeller(t, client, "glaze", true, false)
	self := pkgAuth.Actor{AccountID: seller.ID, Role: enums.AccountRoleSeller}

	out, err := svc.SetCustomization(ctx, self, seller.ID, nil)
	require.NoError(t, err)
	assert.True(t, out.CustomizationEnabled)

	listed, err := svc.ListCustomizable(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "glaze", listed[0].ShopName)

	off := false
	out, err = svc.SetCustomization(ctx, admin, seller.ID, &off)
	require.NoError(t, err)
	assert.False(t, out.CustomizationEnabled)

	other := pkgAuth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleSeller}
	_, err = svc.SetCustomization(ctx, other, seller.ID, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestListCustomizableSkipsUnapproved(t *testing.T) {
	svc, client := newTestService(t)
	seedSeller(t, client, "pending-shop", false, true)
	seedSeller(t, client, "open-shop", true, true)

	listed, err := svc.ListCustomizable(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "open-shop", listed[0].ShopName)
}

func TestStatsAggregatesShopActivity(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	seller := seedSeller(t, client, "stats", true, true)
	conn := client.DB()

	product := &models.Product{SellerID: seller.ID, Name: "Bowl", MRP: decimal.NewFromInt(40), Cost: decimal.NewFromInt(30), Quantity: 7, InStock: true}
	require.NoError(t, conn.Create(product).Error)
	require.NoError(t, conn.Create(&models.Product{SellerID: seller.ID, Name: "Cup", MRP: decimal.NewFromInt(10), Cost: decimal.NewFromInt(8), Quantity: 3, InStock: true}).Error)

	live := &models.Order{BuyerID: uuid.New(), TotalQuantity: 2, TotalPrice: decimal.NewFromInt(60), Lines: []models.OrderLine{
		{ProductID: &product.ID, SellerID: seller.ID, Name: "Bowl", Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
	}}
	require.NoError(t, conn.Create(live).Error)
	cancelled := &models.Order{BuyerID: uuid.New(), Status: enums.OrderStatusCancelled, TotalQuantity: 1, TotalPrice: decimal.NewFromInt(30), Lines: []models.OrderLine{
		{ProductID: &product.ID, SellerID: seller.ID, Name: "Bowl", Quantity: 1, UnitPrice: decimal.NewFromInt(30)},
	}}
	require.NoError(t, conn.Create(cancelled).Error)

	require.NoError(t, conn.Create(&models.CustomPotteryRequest{CustomerID: uuid.New(), RequesterEmail: "a@b.c", Description: "vase", SellerID: seller.ID}).Error)
	require.NoError(t, conn.Create(&models.Video{SellerID: seller.ID, Title: "throwing", ContentHash: "Qm1"}).Error)

	stats, err := svc.Stats(ctx, pkgAuth.Actor{AccountID: seller.ID, Role: enums.AccountRoleSeller}, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ProductCount)
	assert.Equal(t, int64(10), stats.UnitsInStock)
	assert.Equal(t, int64(1), stats.OrderLines)
	assert.Equal(t, int64(2), stats.UnitsSold)
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(60)), "revenue %s", stats.Revenue)
	assert.Equal(t, int64(1), stats.PendingCustomRequests)
	assert.Equal(t, int64(1), stats.VideoCount)

	_, err = svc.Stats(ctx, pkgAuth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleSeller}, seller.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	_, err = svc.Stats(ctx, admin, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
