package response

import (
	"errors"
	"net/http"

	domainErrors "github.com/bookvine/cart-service/internal/domain/errors"
)

type ErrorMapping struct {
	HTTPStatus int
	Status     Status
	Message    string
}

var errorMappings = map[error]ErrorMapping{
	domainErrors.ErrSessionNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Session not found",
	},
	domainErrors.ErrSessionExpired: {
		HTTPStatus: http.StatusGone,
		Status:     StatusNotFound,
		Message:    "Session expired",
	},
	domainErrors.ErrLineNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Cart line not found",
	},
	domainErrors.ErrQuantityAtMinimum: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusError,
		Message:    "Quantity already at minimum; remove the line instead",
	},
	domainErrors.ErrInvalidQuantity: {
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusError,
		Message:    "Quantity must be at least 1",
	},
	domainErrors.ErrProductNotFound: {
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Product not found",
	},
	domainErrors.ErrOutOfStock: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Product is out of stock",
	},
	domainErrors.ErrNotAuthenticated: {
		HTTPStatus: http.StatusUnauthorized,
		Status:     StatusError,
		Message:    "Session is not authenticated",
	},
	domainErrors.ErrAlreadyAuthenticated: {
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Session is already authenticated",
	},
	domainErrors.ErrGatewayUnavailable: {
		HTTPStatus: http.StatusBadGateway,
		Status:     StatusError,
		Message:    "Upstream service unavailable",
	},
}

func MapDomainError(err error) (int, *ErrorResponse) {
	for domainErr, mapping := range errorMappings {
		if errors.Is(err, domainErr) {
			resp := Error(mapping.Status, mapping.Message)
			resp.Error = err.Error()
			return mapping.HTTPStatus, resp
		}
	}

	resp := Error(StatusInternalError, "Internal server error")
	resp.Error = err.Error()
	return http.StatusInternalServerError, resp
}

func WriteDomainError(w http.ResponseWriter, err error) {
	statusCode, errorResponse := MapDomainError(err)
	WriteJSON(w, statusCode, errorResponse)
}
