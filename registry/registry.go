package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zerbitx/nockpoint/encode"
	"github.com/zerbitx/nockpoint/store"
	"github.com/zerbitx/nockpoint/stub"
)

// Hash is the store collection every stub lives in.
const Hash = "nockpoint"

// ErrNotFound is returned by Lookup for absent or unreadable definitions.
var ErrNotFound = errors.New("endpoint not registered")

type (
	// Registry maps endpoint keys to stub definitions held in a Store.
	Registry struct {
		store  store.Store
		logger logrus.FieldLogger
	}

	// Option is a function that can modify a Registry
	Option func(r *Registry)
)

// New returns a Registry over s.
func New(s store.Store, options ...Option) *Registry {
	r := &Registry{
		store:  s,
		logger: logrus.StandardLogger(),
	}

	for _, applyOption := range options {
		applyOption(r)
	}

	return r
}

// WithLogger overrides the default logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// Lookup returns the definition stored for key. Stored data that does not
// decode is reported as ErrNotFound.
func (r *Registry) Lookup(ctx context.Context, key stub.Key) (stub.Definition, error) {
	field, err := r.store.HGet(ctx, Hash, key.String())
	if errors.Is(err, store.ErrMissing) {
		return stub.Definition{}, ErrNotFound
	}

	if err != nil {
		return stub.Definition{}, fmt.Errorf("lookup %s: %w", key, err)
	}

	var def stub.Definition
	if err := encode.Decode([]byte(field), &def); err != nil {
		r.logger.
			WithError(err).
			WithFields(logrus.Fields{"key": key.String(), "field": field}).
			Warn("ignoring malformed stored definition")
		return stub.Definition{}, ErrNotFound
	}

	return def, nil
}

// Put stores def under key, replacing any previous definition.
func (r *Registry) Put(ctx context.Context, key stub.Key, def stub.Definition) error {
	field, err := encode.Compact(def)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	r.logger.WithFields(logrus.Fields{"key": key.String(), "field": string(field)}).Info("endpoint add")

	if err := r.store.HSet(ctx, Hash, key.String(), string(field)); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (r *Registry) Remove(ctx context.Context, key stub.Key) error {
	r.logger.WithField("key", key.String()).Info("endpoint remove")

	if err := r.store.HDel(ctx, Hash, key.String()); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}

	return nil
}

// Count returns the number of registered endpoints.
func (r *Registry) Count(ctx context.Context) (int64, error) {
	n, err := r.store.HLen(ctx, Hash)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	return n, nil
}
