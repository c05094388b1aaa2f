package controllers

import (
	"net/http"

	"github.com/angelmondragon/printshop-backend/api/middleware"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

func actorFromRequest(r *http.Request) (orders.Actor, error) {
	userID, role, ok := middleware.Caller(r.Context())
	if !ok {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return orders.Actor{UserID: userID, Role: role}, nil
}
