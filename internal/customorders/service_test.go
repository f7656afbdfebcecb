package customorders

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/internal/media"
	"github.com/clayhaus/clayhaus-backend/internal/sellers"
	pkgAuth "github.com/clayhaus/clayhaus-backend/pkg/auth"
	"github.com/clayhaus/clayhaus-backend/pkg/db"
	"github.com/clayhaus/clayhaus-backend/pkg/db/dbtest"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	pkgerrors "github.com/clayhaus/clayhaus-backend/pkg/errors"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox"
)

type fakeMedia struct {
	calls     int
	err       error
	discarded []string
}

func (f *fakeMedia) UploadImage(_ context.Context, _ pkgAuth.Actor, kind media.Kind, body io.Reader) (*media.Upload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	return &media.Upload{Object: string(kind), URL: "https://cdn.example.com/custom-requests/x.png", ContentType: "image/png"}, nil
}

func (f *fakeMedia) Discard(_ context.Context, object string) error {
	f.discarded = append(f.discarded, object)
	return nil
}

type failingOutbox struct{}

func (failingOutbox) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox insert failed")
}

func newTestService(t *testing.T) (Service, *db.Client, *fakeMedia) {
	t.Helper()
	client := dbtest.New(t)
	uploads := &fakeMedia{}
	svc, err := NewService(ServiceParams{
		DB:      client,
		Repo:    NewRepository(client.DB()),
		Sellers: sellers.NewRepository(client.DB()),
		Media:   uploads,
		Outbox:  outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop()),
	})
	require.NoError(t, err)
	return svc, client, uploads
}

func seedVendor(t *testing.T, client *db.Client, shop string, approved, custom bool) *models.Seller {
	t.Helper()
	seller := &models.Seller{
		Name:                 shop + " owner",
		Email:                shop + "@example.com",
		PasswordHash:         "x",
		ShopName:             shop,
		Approved:             approved,
		CustomizationEnabled: custom,
	}
	require.NoError(t, client.DB().Create(seller).Error)
	return seller
}

func customer() pkgAuth.Actor {
	return pkgAuth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleCustomer}
}

func vendorActor(s *models.Seller) pkgAuth.Actor {
	return pkgAuth.Actor{AccountID: s.ID, Role: enums.AccountRoleSeller}
}

func submitFor(vendor *models.Seller) SubmitRequest {
	return SubmitRequest{Email: "bea@example.com", Description: "Speckled planter, 30cm", SellerID: vendor.ID}
}

func TestPricedRequestMovesBetweenLists(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client, "acme", true, true)
	buyer := customer()

	created, err := svc.Submit(ctx, buyer, submitFor(vendor), nil)
	require.NoError(t, err)
	assert.Equal(t, enums.CustomRequestStatusPending, created.Status)
	assert.True(t, created.Price.IsZero())
	assert.Nil(t, created.ImageURL)

	pending, err := svc.ListPending(ctx, vendorActor(vendor))
	require.NoError(t, err)
	require.Len(t, pending, 1)

	decision, err := svc.Decide(ctx, vendorActor(vendor), created.ID, DecideRequest{Status: "priced", Price: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.Equal(t, enums.CustomRequestStatusPriced, decision.Request.Status)
	assert.True(t, decision.Request.Price.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "acme", decision.VendorName)

	priced, err := svc.ListPriced(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, priced, 1)
	assert.Equal(t, created.ID, priced[0].ID)

	pending, err = svc.ListPending(ctx, vendorActor(vendor))
	require.NoError(t, err)
	assert.Empty(t, pending)

	var events []models.OutboxEvent
	require.NoError(t, client.DB().Order("created_at ASC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.ElementsMatch(t,
		[]enums.OutboxEventType{enums.EventCustomRequestSubmitted, enums.EventCustomRequestDecided},
		[]enums.OutboxEventType{events[0].EventType, events[1].EventType})
}

func TestDecidePricingRules(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client, "acme", true, true)
	buyer := customer()

	first, err := svc.Submit(ctx, buyer, submitFor(vendor), nil)
	require.NoError(t, err)

	_, err = svc.Decide(ctx, vendorActor(vendor), first.ID, DecideRequest{Status: "priced", Price: decimal.Zero})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = svc.Decide(ctx, vendorActor(vendor), first.ID, DecideRequest{Status: "PRICED", Price: decimal.NewFromInt(-5)})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	decision, err := svc.Decide(ctx, vendorActor(vendor), first.ID, DecideRequest{Status: "nope", Price: decimal.NewFromInt(99)})
	require.NoError(t, err)
	assert.Equal(t, enums.CustomRequestStatusRejected, decision.Request.Status)
	assert.True(t, decision.Request.Price.IsZero())

	var stored models.CustomPotteryRequest
	require.NoError(t, client.DB().First(&stored, "id = ?", first.ID).Error)
	assert.Equal(t, enums.CustomRequestStatusRejected, stored.Status)
	assert.True(t, stored.Price.IsZero())

	_, err = svc.Decide(ctx, vendorActor(vendor), first.ID, DecideRequest{Status: "priced", Price: decimal.NewFromInt(10)})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestDecideAuthorization(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client, "acme", true, true)
	rival := seedVendor(t, client, "rival", true, true)

	created, err := svc.Submit(ctx, customer(), submitFor(vendor), nil)
	require.NoError(t, err)

	_, err = svc.Decide(ctx, vendorActor(rival), created.ID, DecideRequest{Status: "priced", Price: decimal.NewFromInt(10)})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = svc.Decide(ctx, vendorActor(vendor), uuid.New(), DecideRequest{Status: "priced", Price: decimal.NewFromInt(10)})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.ListPending(ctx, customer())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	_, err = svc.ListPriced(ctx, vendorActor(vendor))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestSubmitRejectsIneligibleVendors(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	unapproved := seedVendor(t, client, "fresh", false, true)
	closed := seedVendor(t, client, "closed", true, false)

	_, err := svc.Submit(ctx, customer(), submitFor(unapproved), nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Submit(ctx, customer(), submitFor(closed), nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Submit(ctx, customer(), SubmitRequest{Email: "a@b.co", Description: "x", SellerID: uuid.New()}, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.Submit(ctx, customer(), SubmitRequest{Email: "a@b.co", SellerID: closed.ID}, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Submit(ctx, vendorActor(closed), submitFor(closed), nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	var count int64
	require.NoError(t, client.DB().Model(&models.CustomPotteryRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitStoresImage(t *testing.T) {
	svc, client, uploads := newTestService(t)
	vendor := seedVendor(t, client, "acme", true, true)

	created, err := svc.Submit(context.Background(), customer(), submitFor(vendor), bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	require.NotNil(t, created.ImageURL)
	assert.Equal(t, "https://cdn.example.com/custom-requests/x.png", *created.ImageURL)
	assert.Equal(t, 1, uploads.calls)

	uploads.err = pkgerrors.New(pkgerrors.CodeDependency, "bucket down")
	_, err = svc.Submit(context.Background(), customer(), submitFor(vendor), bytes.NewReader([]byte("png-bytes")))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestSubmitDiscardsImageWhenInsertFails(t *testing.T) {
	client := dbtest.New(t)
	uploads := &fakeMedia{}
	svc, err := NewService(ServiceParams{
		DB:      client,
		Repo:    NewRepository(client.DB()),
		Sellers: sellers.NewRepository(client.DB()),
		Media:   uploads,
		Outbox:  failingOutbox{},
	})
	require.NoError(t, err)
	vendor := seedVendor(t, client, "acme", true, true)

	_, err = svc.Submit(context.Background(), customer(), submitFor(vendor), bytes.NewReader([]byte("png-bytes")))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
	assert.Equal(t, []string{string(media.KindCustomRequestImage)}, uploads.discarded)

	var count int64
	require.NoError(t, client.DB().Model(&models.CustomPotteryRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}
