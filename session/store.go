package session

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("empty user key")

// Store scopes a Cache to one namespace and keys entries by user id.
type Store[S any] struct {
	core      Cache[S]
	namespace string
}

func NewStore[S any](core Cache[S], namespace string) Store[S] {
	return Store[S]{
		core:      core,
		namespace: namespace,
	}
}

func (c Store[S]) key(user string) (string, error) {
	if user == "" {
		return "", ErrEmptyKey
	}
	return c.namespace + ":" + user, nil
}

func (c Store[S]) Set(ctx context.Context, user string, val S) error {
	key, err := c.key(user)
	if err != nil {
		return err
	}
	return c.core.Set(ctx, key, val)
}

func (c Store[S]) Get(ctx context.Context, user string) (S, bool, error) {
	key, err := c.key(user)
	if err != nil {
		var zero S
		return zero, false, err
	}
	return c.core.Get(ctx, key)
}

func (c Store[S]) Del(ctx context.Context, user string) error {
	key, err := c.key(user)
	if err != nil {
		return err
	}
	return c.core.Del(ctx, key)
}

func (c Store[S]) Exists(ctx context.Context, user string) (bool, error) {
	key, err := c.key(user)
	if err != nil {
		return false, err
	}
	return c.core.Exists(ctx, key)
}
