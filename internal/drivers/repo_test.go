package drivers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:drivers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.DeliveryPartner{}))
	return db
}

func seedDriver(t *testing.T, db *gorm.DB, mutate func(*models.DeliveryPartner)) uuid.UUID {
	t.Helper()
	driver := models.DeliveryPartner{
		ID:          uuid.New(),
		Name:        "driver",
		Phone:       uuid.NewString(),
		IsOnline:    true,
		IsActivated: true,
	}
	if mutate != nil {
		mutate(&driver)
	}
	require.NoError(t, db.Create(&driver).Error)
	return driver.ID
}

func TestFindByIDMissing(t *testing.T) {
	t.Parallel()

	r := NewRepo(newTestDB(t))
	_, err := r.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestPickLongestIdlePrefersNeverAssigned(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewRepo(db)

	recently := time.Now().Add(-time.Hour)
	seedDriver(t, db, func(d *models.DeliveryPartner) { d.LastAssignedAt = &recently })
	fresh := seedDriver(t, db, nil)

	picked, err := r.PickLongestIdle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, picked.ID)
}

func TestPickLongestIdleOrdersByLastAssignment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewRepo(db)

	hourAgo := time.Now().Add(-time.Hour)
	dayAgo := time.Now().Add(-24 * time.Hour)
	seedDriver(t, db, func(d *models.DeliveryPartner) { d.LastAssignedAt = &hourAgo })
	idle := seedDriver(t, db, func(d *models.DeliveryPartner) { d.LastAssignedAt = &dayAgo })

	picked, err := r.PickLongestIdle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, idle, picked.ID)
}

func TestPickLongestIdleSkipsIneligible(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewRepo(db)

	seedDriver(t, db, func(d *models.DeliveryPartner) { d.IsActivated = false })
	seedDriver(t, db, func(d *models.DeliveryPartner) { d.IsOnline = false })

	_, err := r.PickLongestIdle(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestStampAssignedRotatesPick(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewRepo(db)

	first := seedDriver(t, db, nil)
	second := seedDriver(t, db, nil)

	require.NoError(t, r.StampAssigned(context.Background(), nil, first, time.Now()))

	picked, err := r.PickLongestIdle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second, picked.ID)
}

func TestUpdateLiveLocation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := NewRepo(db)
	driverID := seedDriver(t, db, nil)

	location := types.GeoPoint{Latitude: 12.97, Longitude: 77.59, Address: "MG Road"}
	require.NoError(t, r.UpdateLiveLocation(context.Background(), driverID, location))

	stored, err := r.FindByID(context.Background(), driverID)
	require.NoError(t, err)
	require.NotNil(t, stored.LiveLocation)
	assert.Equal(t, location, *stored.LiveLocation)
}
