package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/carstoreapp/carstore-backend/api/middleware"
	pkgerrors "github.com/carstoreapp/carstore-backend/pkg/errors"
)

// callerID resolves the authenticated user ID seeded by the auth middleware.
func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
