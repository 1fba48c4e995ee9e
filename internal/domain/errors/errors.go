package errors

import (
	"errors"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	ErrLineNotFound      = errors.New("cart line not found")
	ErrQuantityAtMinimum = errors.New("quantity already at minimum")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")

	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product is out of stock")

	ErrNotAuthenticated     = errors.New("session is not authenticated")
	ErrAlreadyAuthenticated = errors.New("session is already authenticated")

	ErrGatewayUnavailable = errors.New("cart gateway unavailable")
)
