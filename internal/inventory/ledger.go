package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
)

// ReservationRequest asks for qty units of a product.
type ReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// Ledger owns the product stock counters. Reservation validates every item
// before any stock is touched; both the validation pass and the decrement
// pass run inside the caller's transaction, so a failure anywhere leaves all
// counters unchanged.
type Ledger struct{}

// NewLedger builds the stock ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Reserve decrements stock for every request, all-or-nothing. Returns the
// loaded products keyed by id so callers can snapshot names and prices.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) (map[uuid.UUID]*models.Product, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}

	products := make(map[uuid.UUID]*models.Product, len(requests))
	totals := make(map[uuid.UUID]int, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"product_id": req.ProductID})
		}
		totals[req.ProductID] += req.Qty
	}

	// Validation pass: every item must be loadable, available, and in stock
	// before any counter moves.
	for productID, qty := range totals {
		var product models.Product
		err := tx.WithContext(ctx).Where("id = ?", productID).First(&product).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": productID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsAvailable {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("product %s is unavailable", product.Name)).
				WithDetails(map[string]any{"product_id": productID, "reason": "unavailable"})
		}
		if product.Stock < qty {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %s", product.Name)).
				WithDetails(map[string]any{"product_id": productID, "requested": qty, "in_stock": product.Stock})
		}
		products[productID] = &product
	}

	// Decrement pass: the stock guard in the WHERE clause closes the window
	// between validation and mutation; a zero-row update rolls the whole
	// transaction back.
	for productID, qty := range totals {
		res := tx.WithContext(ctx).Exec(
			`UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND stock >= ?`,
			qty, productID, qty,
		)
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
		}
		if res.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %s", products[productID].Name)).
				WithDetails(map[string]any{"product_id": productID, "requested": qty})
		}
	}

	return products, nil
}

// Release returns previously reserved stock. No upper bound applies; only a
// floor of zero is enforced on the reservation side.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}
	res := tx.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		qty, productID,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	return nil
}
