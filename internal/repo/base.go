package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the shared foundation domain repositories embed.
type Base struct {
	db *gorm.DB
}

// NewBase binds a Base to a GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection scoped to the supplied context.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
