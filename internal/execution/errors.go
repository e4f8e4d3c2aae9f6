package execution

import "errors"

var (
	ErrTooManyOrders      = errors.New("too many orders for this match")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoPosition         = errors.New("no open position for this token")
	ErrInvalidQuantity    = errors.New("sell quantity resolves to zero or less")
)
