package service

import (
	"context"

	"smart-planner/core/errors"
	"smart-planner/modules/planner/entity"

	"github.com/google/uuid"
)

// DisplayLister is implemented by stores that can serve a stale snapshot when
// the live read fails. The bool reports whether the result is stale.
type DisplayLister interface {
	ListForDisplay(ctx context.Context) ([]entity.Event, bool, error)
}

// StoreFactory builds the event store of one user
type StoreFactory func(ctx context.Context, userID uuid.UUID) (EventStore, error)

// ConnectedStoreFactory returns a store only when the user has connected an
// external calendar; ok is false otherwise.
type ConnectedStoreFactory func(ctx context.Context, userID uuid.UUID) (store EventStore, ok bool, err error)

// StoreResolver picks the event store for a user: a connected external
// calendar first, then the configured default.
type StoreResolver struct {
	Connected ConnectedStoreFactory
	Default   StoreFactory
}

func (r *StoreResolver) For(ctx context.Context, userID uuid.UUID) (EventStore, error) {
	if r.Connected != nil {
		store, ok, err := r.Connected(ctx, userID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrTransport, "failed to resolve connected calendar", err)
		}
		if ok {
			return store, nil
		}
	}
	if r.Default == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "no event store configured", nil)
	}
	return r.Default(ctx, userID)
}

// ListForDisplay reads through the display fallback when the store has one
func ListForDisplay(ctx context.Context, store EventStore) ([]entity.Event, bool, error) {
	if dl, ok := store.(DisplayLister); ok {
		return dl.ListForDisplay(ctx)
	}
	events, err := store.List(ctx)
	return events, false, err
}
