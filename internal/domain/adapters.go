package domain

import "context"

// PriceFeed supplies the current price for a named asset. It is queried once
// when a round is opened and once when it is settled; within one settlement
// evaluation the returned value is consistent across calls.
type PriceFeed interface {
	GetPrice(ctx context.Context, asset string) (int64, error)
}

// Treasury moves fixed-point value between accounts. Transfer fails with
// ErrInsufficientFunds, and the whole calling operation with it, when the
// source balance is too low; a failed transfer has no effect.
type Treasury interface {
	Transfer(ctx context.Context, from, to string, amount int64) error
	Balance(ctx context.Context, account string) (int64, error)
}

// Authorizer verifies that the given identity authorized the current call.
// Implementations read the request proof from the context (see the auth
// package) and return ErrNotAuthorized on any mismatch.
type Authorizer interface {
	RequireAuthorized(ctx context.Context, identity string) error
}
