// README: Shared value types used across modules.
package types

// ID is an opaque entity identifier (user, shop, order).
type ID string

type Point struct {
	Lat float64
	Lng float64
}

// Money is an amount in the smallest currency unit (paise for INR).
type Money struct {
	Amount   int64
	Currency string
}
