package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextOrderNumber claims the next value of the shared sequence. The single
// UPDATE ... RETURNING makes concurrent claims collision-free.
func (r *repository) NextOrderNumber(ctx context.Context) (string, error) {
	var current int64
	err := r.db.WithContext(ctx).
		Raw(`UPDATE counters SET current = current + 1 WHERE name = ? RETURNING current`,
			models.CounterOrderNumber).
		Scan(&current).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order number")
	}
	if current == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "order number counter missing")
	}
	return fmt.Sprintf("ORDR%05d", current), nil
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]any{"order_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// LoadProducts fetches catalog rows for a cart preview without reserving
// anything.
func (r *repository) LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	products := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		products[rows[i].ID] = &rows[i]
	}
	return products, nil
}

func (r *repository) FindBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found").
				WithDetails(map[string]any{"branch_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	return &branch, nil
}

// FindDetail loads the order with every association resolved so realtime
// payloads are render-ready.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Customer").
		Preload("Branch").
		Preload("DeliveryPartner").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]any{"order_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order detail")
	}
	return &order, nil
}

// Transition applies from -> to as a single conditional update. The status
// guard in the WHERE clause is what closes the race between two actors
// mutating the same order; the caller must treat false as a concurrent
// modification, not as success.
func (r *repository) Transition(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	applied := map[string]any{"status": to}
	for k, v := range updates {
		applied[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(applied)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "transition order status")
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*List, error) {
	query := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	return r.list(ctx, query, params)
}

// ListForDriver returns the driver's own orders plus the open pool.
func (r *repository) ListForDriver(ctx context.Context, driverID uuid.UUID, params pagination.Params) (*List, error) {
	query := r.db.WithContext(ctx).
		Where("delivery_partner_id = ? OR status = ?", driverID, enums.OrderStatusAvailable)
	return r.list(ctx, query, params)
}

func (r *repository) ListAll(ctx context.Context, filter Filter, params pagination.Params) (*List, error) {
	query := r.db.WithContext(ctx)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return r.list(ctx, query, params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) (*List, error) {
	cursor, err := pagination.Parse(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Order
	err = query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	list := &List{Orders: rows}
	if len(rows) > limit {
		list.Orders = rows[:limit]
		last := list.Orders[limit-1]
		list.NextCursor = pagination.Encode(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

// HasDeliveredOrder reports whether the customer already has a delivered
// order other than the one being processed.
func (r *repository) HasDeliveredOrder(ctx context.Context, customerID uuid.UUID, excludeOrderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ? AND status = ? AND id <> ?",
			customerID, enums.OrderStatusDelivered, excludeOrderID).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count delivered orders")
	}
	return count > 0, nil
}

// ActiveFeeConfig loads the fee policy; a missing row means every component
// is off.
func (r *repository) ActiveFeeConfig(ctx context.Context) (*models.FeeConfig, error) {
	var cfg models.FeeConfig
	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.FeeConfig{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fee config")
	}
	return &cfg, nil
}

// ExpireStaleAssigned reverts orders stuck in assigned past the cutoff back
// to the pool, clearing the driver binding.
func (r *repository) ExpireStaleAssigned(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ? AND assigned_at IS NOT NULL AND assigned_at < ?",
			enums.OrderStatusAssigned, cutoff).
		Updates(map[string]any{
			"status":              enums.OrderStatusAvailable,
			"delivery_partner_id": nil,
			"assigned_at":         nil,
		})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "expire stale assignments")
	}
	return res.RowsAffected, nil
}
