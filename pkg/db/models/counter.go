package models

// Counter backs monotonic sequence generation (order numbers). Increments go
// through a single atomic UPDATE ... RETURNING so concurrent inserts can not
// observe the same value.
type Counter struct {
	Name    string `gorm:"column:name;primaryKey"`
	Current int64  `gorm:"column:current;not null;default:0"`
}

// CounterOrderNumber is the shared sequence behind ORDR order numbers.
const CounterOrderNumber = "order_number"
