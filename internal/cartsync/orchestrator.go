// Package cartsync merges a guest cart into the server cart exactly once
// per login.
package cartsync

import (
	"context"
	"fmt"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/fjod/skincare-cart/internal/localcart"
	"github.com/fjod/skincare-cart/internal/reconcile"
	"go.uber.org/zap"
)

// ServerCart is the authenticated user's cart as seen by the merge
type ServerCart interface {
	Items(ctx context.Context, userID string) ([]domain.ServerCartItem, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	SetQuantity(ctx context.Context, userID, cartItemID string, quantity int) error
}

// SessionState is owned by the caller and carried between checks.
// WasAuthenticated holds the authentication level seen on the previous
// check so that only the anonymous to authenticated edge triggers a merge.
type SessionState struct {
	WasAuthenticated     bool `json:"was_authenticated"`
	HasSyncedThisSession bool `json:"has_synced_this_session"`
}

type Auth struct {
	Authenticated bool
	UserID        string
}

type Result struct {
	Fired bool                `json:"fired"`
	Stats reconcile.SyncStats `json:"stats"`
}

type Orchestrator struct {
	server ServerCart
	log    *zap.Logger
}

func NewOrchestrator(server ServerCart, log *zap.Logger) *Orchestrator {
	return &Orchestrator{server: server, log: log.Named("cartsync")}
}

// Check observes the current authentication level. On logout the state is
// reset; on login it runs the merge. Any other observation is a no-op.
func (o *Orchestrator) Check(ctx context.Context, state *SessionState, auth Auth, store *localcart.Store) (*Result, error) {
	if !auth.Authenticated {
		if state.WasAuthenticated {
			o.log.Debug("session logged out, sync state reset")
		}
		*state = SessionState{}
		return &Result{}, nil
	}

	if state.WasAuthenticated || state.HasSyncedThisSession {
		return &Result{}, nil
	}
	state.WasAuthenticated = true

	return o.run(ctx, state, auth.UserID, store)
}

// Resync retries a merge that failed earlier in the same authenticated
// session. It does nothing once the session is synced.
func (o *Orchestrator) Resync(ctx context.Context, state *SessionState, auth Auth, store *localcart.Store) (*Result, error) {
	if !auth.Authenticated || state.HasSyncedThisSession {
		return &Result{}, nil
	}
	state.WasAuthenticated = true
	return o.run(ctx, state, auth.UserID, store)
}

func (o *Orchestrator) run(ctx context.Context, state *SessionState, userID string, store *localcart.Store) (*Result, error) {
	result := &Result{Fired: true, Stats: reconcile.CalculateSyncStats(nil, nil, nil)}

	local := store.Get(ctx)
	if len(local) == 0 {
		state.HasSyncedThisSession = true
		return result, nil
	}

	server, err := o.server.Items(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to fetch server cart: %w", err)
	}

	plan := reconcile.CompareCarts(local, server)
	if plan.Empty() {
		if err := store.Clear(ctx); err != nil {
			return result, fmt.Errorf("failed to clear guest cart: %w", err)
		}
		state.HasSyncedThisSession = true
		return result, nil
	}

	// One call at a time: the server cart is a single document per user.
	for _, item := range plan.ToAdd {
		if err := o.server.AddItem(ctx, userID, item.ProductID, item.Quantity); err != nil {
			return result, fmt.Errorf("failed to add %s to server cart: %w", item.ProductID, err)
		}
	}
	for _, upd := range plan.ToUpdate {
		if err := o.server.SetQuantity(ctx, userID, upd.CartItemID, upd.Quantity); err != nil {
			return result, fmt.Errorf("failed to update %s in server cart: %w", upd.ProductID, err)
		}
	}

	result.Stats = reconcile.CalculateSyncStats(plan.ToAdd, plan.ToUpdate, plan.Conflicts)

	if err := store.Clear(ctx); err != nil {
		// The server cart already holds the merge; a re-run yields an empty plan.
		return result, fmt.Errorf("failed to clear guest cart: %w", err)
	}
	state.HasSyncedThisSession = true

	o.log.Info("guest cart merged",
		zap.String("user_id", userID),
		zap.Int("merged", result.Stats.MergedCount),
		zap.Int("added", result.Stats.AddedCount),
		zap.Int("conflicts", result.Stats.ConflictCount),
	)
	return result, nil
}
