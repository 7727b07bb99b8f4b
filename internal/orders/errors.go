package orders

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrUnknownRole        = errors.New("unknown role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownProduct     = errors.New("unknown product")
	ErrUnknownOrder       = errors.New("unknown order")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrOrderNotPending    = errors.New("order not pending")
	ErrNotAssignedRider   = errors.New("not the assigned rider")
	ErrIllegalTransition  = errors.New("illegal status transition")
)
