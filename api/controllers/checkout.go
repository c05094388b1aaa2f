package controllers

import (
	"net/http"

	"github.com/angelmondragon/printshop-backend/api/middleware"
	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/printshop-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// Checkout places an order for the authenticated customer.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input checkoutsvc.PlaceOrderInput
		if err := validators.DecodeJSONPayload(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.UserID = actor.UserID
		input.Email = middleware.EmailFromContext(r.Context())

		result, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
