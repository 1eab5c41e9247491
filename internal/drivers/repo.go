package drivers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/internal/repo"
	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

// Repo owns delivery partner persistence.
type Repo struct {
	repo.Base
}

// NewRepo builds the driver repository.
func NewRepo(db *gorm.DB) *Repo {
	return &Repo{Base: repo.NewBase(db)}
}

// FindByID loads a driver or returns NotFound.
func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryPartner, error) {
	var driver models.DeliveryPartner
	err := r.DB(ctx).Where("id = ?", id).First(&driver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found").
				WithDetails(map[string]any{"driver_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	return &driver, nil
}

// PickLongestIdle returns the activated, online driver whose last assignment
// is oldest. Drivers never assigned sort first.
func (r *Repo) PickLongestIdle(ctx context.Context) (*models.DeliveryPartner, error) {
	var driver models.DeliveryPartner
	err := r.DB(ctx).
		Where("is_activated = ? AND is_online = ?", true, true).
		Order("last_assigned_at ASC NULLS FIRST").
		First(&driver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no driver available")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pick idle driver")
	}
	return &driver, nil
}

// StampAssigned records an assignment so the longest-idle pick rotates.
func (r *Repo) StampAssigned(ctx context.Context, tx *gorm.DB, driverID uuid.UUID, at time.Time) error {
	db := r.DB(ctx)
	if tx != nil {
		db = tx.WithContext(ctx)
	}
	res := db.Exec(
		`UPDATE delivery_partners SET last_assigned_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at, driverID,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "stamp driver assignment")
	}
	return nil
}

// UpdateLiveLocation stores the driver's latest location snapshot.
func (r *Repo) UpdateLiveLocation(ctx context.Context, driverID uuid.UUID, location types.GeoPoint) error {
	err := r.DB(ctx).
		Model(&models.DeliveryPartner{}).
		Where("id = ?", driverID).
		Update("live_location", &location).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update driver location")
	}
	return nil
}

// SetOnline flips the driver's availability flag.
func (r *Repo) SetOnline(ctx context.Context, driverID uuid.UUID, online bool) error {
	err := r.DB(ctx).
		Model(&models.DeliveryPartner{}).
		Where("id = ?", driverID).
		Update("is_online", online).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set driver online flag")
	}
	return nil
}
