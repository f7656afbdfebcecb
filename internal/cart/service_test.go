package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clayhaus/clayhaus-backend/internal/customers"
	"github.com/clayhaus/clayhaus-backend/internal/customorders"
	"github.com/clayhaus/clayhaus-backend/internal/orders"
	"github.com/clayhaus/clayhaus-backend/internal/products"
	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/dbtest"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox"
	"github.com/clayhaus/clayhaus-backend/pkg/types"
)

type cartFixture struct {
	svc    Service
	client *db.Client
	kv     *memoryKV
	seller *models.Seller
	buyer  *models.Customer
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	client := dbtest.New(t)
	placer, err := orders.NewService(orders.ServiceParams{
		DB:             client,
		Repo:           orders.NewRepository(client.DB()),
		Customers:      customers.NewRepository(client.DB()),
		CustomRequests: customorders.NewRepository(client.DB()),
		Outbox:         outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop()),
	})
	require.NoError(t, err)

	kv := newMemoryKV()
	store, err := NewRedisStore(kv, time.Hour)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Store:          store,
		Products:       products.NewRepository(client.DB()),
		CustomRequests: customorders.NewRepository(client.DB()),
		Orders:         placer,
	})
	require.NoError(t, err)

	seller := &models.Seller{Name: "Ann", Email: "ann@example.com", PasswordHash: "x", ShopName: "acme", Approved: true}
	require.NoError(t, client.DB().Create(seller).Error)
	buyer := &models.Customer{
		Name:         "Bea",
		Email:        "bea@example.com",
		PasswordHash: "x",
		Address:      types.ShippingAddress{FullName: "Bea", Line1: "1 Kiln Rd", City: "Stoke", State: "Staffs", PostalCode: "ST1"},
	}
	require.NoError(t, client.DB().Create(buyer).Error)
	return &cartFixture{svc: svc, client: client, kv: kv, seller: seller, buyer: buyer}
}

func (f *cartFixture) product(t *testing.T, qty int, inStock bool) *models.Product {
	t.Helper()
	product := &models.Product{
		SellerID: f.seller.ID,
		Name:     "Jug",
		MRP:      decimal.NewFromInt(20),
		Cost:     decimal.NewFromInt(15),
		Category: "jugs",
		Quantity: qty,
		InStock:  inStock,
	}
	require.NoError(t, f.client.DB().Create(product).Error)
	return product
}

func (f *cartFixture) actor() pkgAuth.Actor {
	return pkgAuth.Actor{AccountID: f.buyer.ID, Role: enums.AccountRoleCustomer}
}

func TestAddProductDenormalizesAndMerges(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	product := f.product(t, 5, true)

	out, err := f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: product.ID})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Jug", out.Items[0].Name)
	assert.True(t, out.Items[0].UnitPrice.Equal(decimal.NewFromInt(15)))

	out, err = f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, 4, out.TotalQuantity)

	_, err = f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: product.ID, Quantity: 2})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	reloaded, err := f.svc.Get(ctx, f.actor())
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.TotalQuantity)
}

func TestAddProductRejectsOutOfStockAndMissing(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: f.product(t, 0, false).ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: uuid.New()})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	seller := pkgAuth.Actor{AccountID: f.seller.ID, Role: enums.AccountRoleSeller}
	_, err = f.svc.Get(ctx, seller)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestAddCustomRequestFixedQuantity(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	request := &models.CustomPotteryRequest{
		CustomerID:     f.buyer.ID,
		RequesterEmail: f.buyer.Email,
		Description:    "Tall vase",
		SellerID:       f.seller.ID,
		Status:         enums.CustomRequestStatusPriced,
		Price:          decimal.NewFromInt(40),
	}
	require.NoError(t, f.client.DB().Create(request).Error)

	_, err := f.svc.AddCustomRequest(ctx, f.actor(), AddCustomRequest{CustomRequestID: request.ID})
	require.NoError(t, err)
	out, err := f.svc.AddCustomRequest(ctx, f.actor(), AddCustomRequest{CustomRequestID: request.ID})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, 1, out.Items[0].Quantity)
	assert.Equal(t, ItemKindCustom, out.Items[0].Kind)

	stranger := pkgAuth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleCustomer}
	_, err = f.svc.AddCustomRequest(ctx, stranger, AddCustomRequest{CustomRequestID: request.ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestRemoveOperations(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	product := f.product(t, 10, true)

	_, err := f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	out, err := f.svc.RemoveOne(ctx, f.actor(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalQuantity)

	out, err = f.svc.RemoveOne(ctx, f.actor(), product.ID)
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	_, err = f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: product.ID, Quantity: 5})
	require.NoError(t, err)
	out, err = f.svc.Remove(ctx, f.actor(), product.ID)
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	_, err = f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: product.ID})
	require.NoError(t, err)
	out, err = f.svc.Clear(ctx, f.actor())
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Empty(t, f.kv.data)
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	product := f.product(t, 5, true)

	_, err := f.svc.Checkout(ctx, f.actor(), CheckoutRequest{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, f.actor(), CheckoutRequest{Payment: orders.PaymentRequest{ID: "pay_1", Status: "paid"}})
	require.NoError(t, err)
	assert.Equal(t, 3, order.TotalQuantity)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(45)))

	out, err := f.svc.Get(ctx, f.actor())
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	var stored models.Product
	require.NoError(t, f.client.DB().First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 2, stored.Quantity)
}

func TestCheckoutKeepsCartWhenOrderFails(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	product := f.product(t, 2, true)

	_, err := f.svc.AddProduct(ctx, f.actor(), AddProductRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, f.client.DB().Model(&models.Product{}).Where("id = ?", product.ID).Update("quantity", 1).Error)

	_, err = f.svc.Checkout(ctx, f.actor(), CheckoutRequest{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	out, err := f.svc.Get(ctx, f.actor())
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalQuantity)
}
