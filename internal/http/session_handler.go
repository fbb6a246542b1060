package http

import (
	"net/http"

	"github.com/fjod/skincare-cart/internal/cartsync"
	"github.com/fjod/skincare-cart/internal/reconcile"
	"go.uber.org/zap"
)

type SessionRequestDTO struct {
	Authenticated bool `json:"authenticated"`
}

type SessionResponseDTO struct {
	Fired bool                  `json:"fired"`
	Stats reconcile.SyncStats   `json:"stats"`
	State cartsync.SessionState `json:"state"`
}

// POST /api/v1/session
// The client reports its authentication level whenever it changes. The
// first authenticated report after an anonymous one merges the guest cart.
func (a *API) ReportSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	var req SessionRequestDTO
	if !a.decodeJSON(w, r, &req) {
		return
	}

	userID := getUserID(r.Context())
	if req.Authenticated && userID == "" {
		a.respondError(w, http.StatusUnauthorized, "unauthorized", "authenticated session requires a bearer token")
		return
	}

	guestID := getGuestID(r.Context())
	auth := cartsync.Auth{Authenticated: req.Authenticated, UserID: userID}
	res, err := a.sessions.Check(ctx, guestID, auth, a.guestStore(r))
	if err != nil {
		a.respondSyncError(w, r, err, guestID)
		return
	}

	a.respondJSON(w, http.StatusOK, SessionResponseDTO{Fired: res.Fired, Stats: res.Stats, State: a.sessions.State(guestID)})
}

// POST /api/v1/session/resync
func (a *API) ResyncSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	guestID := getGuestID(r.Context())
	auth := cartsync.Auth{Authenticated: true, UserID: getUserID(r.Context())}
	res, err := a.sessions.Resync(ctx, guestID, auth, a.guestStore(r))
	if err != nil {
		a.respondSyncError(w, r, err, guestID)
		return
	}

	a.respondJSON(w, http.StatusOK, SessionResponseDTO{Fired: res.Fired, Stats: res.Stats, State: a.sessions.State(guestID)})
}

func (a *API) respondSyncError(w http.ResponseWriter, r *http.Request, err error, guestID string) {
	a.log.Warn("cart sync failed",
		zap.String("guest_id", guestID),
		zap.String("request_id", getRequestID(r.Context())),
		zap.Error(err),
	)
	a.respondJSON(w, http.StatusBadGateway, ErrorResponse{
		Error:   "could not merge your cart, it has been kept for a retry",
		Code:    "sync_failed",
		Details: a.sessions.State(guestID),
	})
}
