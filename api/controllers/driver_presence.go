package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/grocerdash/grocerdash-backend/api/responses"
	"github.com/grocerdash/grocerdash-backend/api/validators"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
)

// DriverPresence flips a driver's availability flag so dispatch can see them.
type DriverPresence interface {
	SetOnline(ctx context.Context, driverID uuid.UUID, online bool) error
}

type driverPresenceRequest struct {
	Online *bool `json:"online" validate:"required"`
}

type driverPresenceResponse struct {
	DriverID uuid.UUID `json:"driver_id"`
	Online   bool      `json:"online"`
}

// DriverSetPresence lets the authenticated driver mark themselves online or
// offline for dispatch.
func DriverSetPresence(presence DriverPresence, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload driverPresenceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := presence.SetOnline(r.Context(), actor.UserID, *payload.Online); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, driverPresenceResponse{
			DriverID: actor.UserID,
			Online:   *payload.Online,
		})
	}
}
