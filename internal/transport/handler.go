package transport

import (
	"errors"
	"net/http"

	"pizza-shop/internal/domain"
	"pizza-shop/internal/middleware"
	"pizza-shop/internal/repository"
	"pizza-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondServiceError maps service and repository errors to HTTP statuses.
// Anything unrecognized is a 500 with the detail kept out of the response.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrItemNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, repository.ErrUserAlreadyExists),
		errors.Is(err, repository.ErrItemAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())

	case errors.Is(err, repository.ErrTokenInvalid),
		errors.Is(err, repository.ErrInvalidCategory),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrItemUnavailable),
		errors.Is(err, service.ErrInvalidOrderStatus),
		errors.Is(err, service.ErrOrderNotCancellable),
		errors.Is(err, service.ErrIncorrectPassword),
		errors.Is(err, service.ErrPaymentVerificationFailed):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrEmailNotVerified):
		middleware.RespondWithError(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, service.ErrNotOrderOwner):
		middleware.RespondWithError(w, http.StatusForbidden, err.Error())

	default:
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// categoryParam parses the {category} URL segment. An unknown category is a
// 400, not a 404.
func categoryParam(r *http.Request) (domain.Category, bool) {
	return domain.ParseCategory(chi.URLParam(r, "category"))
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// requesterID extracts the authenticated user's id from the request context
func requesterID(r *http.Request) (uuid.UUID, bool) {
	raw, ok := middleware.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
