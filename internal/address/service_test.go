package address

import (
	"context"
	"testing"
	"time"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func setupAddressTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	addresses := `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  address_line1 TEXT NOT NULL,
  address_line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  pincode TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS addresses`).Error)
	require.NoError(t, db.Exec(addresses).Error)
	return db
}

func buildAddressService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo: NewRepository(db),
		Tx:   &testTxRunner{db: db},
	})
	require.NoError(t, err)
	return svc
}

func validCreateRequest(name string) CreateRequest {
	return CreateRequest{
		Name:         name,
		Phone:        "9876543210",
		AddressLine1: "42 Market Street",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
	}
}

func countDefaults(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Count(&count).Error)
	return count
}

func TestCreateFirstAddressBecomesDefault(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, validCreateRequest("Home"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := svc.Create(ctx, userID, validCreateRequest("Office"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	assert.EqualValues(t, 1, countDefaults(t, db, userID))
}

func TestCreateExplicitDefaultDisplacesCurrent(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	home, err := svc.Create(ctx, userID, validCreateRequest("Home"))
	require.NoError(t, err)

	req := validCreateRequest("Office")
	req.IsDefault = true
	office, err := svc.Create(ctx, userID, req)
	require.NoError(t, err)
	assert.True(t, office.IsDefault)

	reloaded, err := svc.Get(ctx, userID, home.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
	assert.EqualValues(t, 1, countDefaults(t, db, userID))
}

func TestCreateValidatesPhoneAndPincode(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	badPhone := validCreateRequest("Home")
	badPhone.Phone = "12345"
	_, err := svc.Create(ctx, userID, badPhone)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	badPin := validCreateRequest("Home")
	badPin.Pincode = "56000"
	_, err = svc.Create(ctx, userID, badPin)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestSetDefaultMovesFlag(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	home, err := svc.Create(ctx, userID, validCreateRequest("Home"))
	require.NoError(t, err)
	office, err := svc.Create(ctx, userID, validCreateRequest("Office"))
	require.NoError(t, err)

	updated, err := svc.SetDefault(ctx, userID, office.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	reloaded, err := svc.Get(ctx, userID, home.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
	assert.EqualValues(t, 1, countDefaults(t, db, userID))

	_, err = svc.SetDefault(ctx, userID, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeleteDefaultPromotesMostRecent(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	home, err := svc.Create(ctx, userID, validCreateRequest("Home"))
	require.NoError(t, err)
	office, err := svc.Create(ctx, userID, validCreateRequest("Office"))
	require.NoError(t, err)

	// Make creation order unambiguous for the promotion query.
	require.NoError(t, db.Model(&models.Address{}).Where("id = ?", home.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	_, err = svc.SetDefault(ctx, userID, home.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, home.ID))

	promoted, err := svc.GetDefault(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, office.ID, promoted.ID)
	assert.EqualValues(t, 1, countDefaults(t, db, userID))
}

func TestDeleteLastAddressLeavesNoDefault(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	home, err := svc.Create(ctx, userID, validCreateRequest("Home"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, home.ID))

	_, err = svc.GetDefault(ctx, userID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestAddressesAreUserScoped(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	address, err := svc.Create(ctx, owner, validCreateRequest("Home"))
	require.NoError(t, err)

	intruder := uuid.New()
	_, err = svc.Get(ctx, intruder, address.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	err = svc.Delete(ctx, intruder, address.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	list, err := svc.List(ctx, intruder)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateAddress(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	home, err := svc.Create(ctx, userID, validCreateRequest("Home"))
	require.NoError(t, err)

	city := "Mysuru"
	updated, err := svc.Update(ctx, userID, home.ID, UpdateRequest{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", updated.City)
	assert.True(t, updated.IsDefault)

	badPhone := "123"
	_, err = svc.Update(ctx, userID, home.ID, UpdateRequest{Phone: &badPhone})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
