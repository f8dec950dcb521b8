package ingest

import (
	"context"
	"errors"
)

// ErrNoOwner is returned when no account exists to own ingested bookmarks.
var ErrNoOwner = errors.New("no bookmark owner configured")

// OwnerResolver decides which account receives bookmarks ingested from chat.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context) (int64, error)
}

// OwnerFunc adapts a function to OwnerResolver.
type OwnerFunc func(ctx context.Context) (int64, error)

// ResolveOwner calls f.
func (f OwnerFunc) ResolveOwner(ctx context.Context) (int64, error) { return f(ctx) }

// StaticOwner always resolves to id.
func StaticOwner(id int64) OwnerResolver {
	return OwnerFunc(func(context.Context) (int64, error) {
		if id <= 0 {
			return 0, ErrNoOwner
		}
		return id, nil
	})
}

// UserLister is the part of the store FirstUserOwner needs.
type UserLister interface {
	FirstUserID(ctx context.Context) (int64, error)
}

// FirstUserOwner resolves to the oldest account, looked up on every call so
// an account created after startup is picked up.
func FirstUserOwner(users UserLister) OwnerResolver {
	return OwnerFunc(func(ctx context.Context) (int64, error) {
		id, err := users.FirstUserID(ctx)
		if err != nil {
			return 0, errors.Join(ErrNoOwner, err)
		}
		return id, nil
	})
}
