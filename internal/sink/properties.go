package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/internal/parser"
)

const propertyKeyPrefix = "swish:props:"

// HashStore is the part of the Redis client PropertyStore needs.
type HashStore interface {
	ReplaceHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
}

// PropertyStore keeps each document's non-empty Properties as one hash.
type PropertyStore struct {
	store  HashStore
	ttl    time.Duration
	logger *slog.Logger
}

func NewPropertyStore(store HashStore, ttl time.Duration) *PropertyStore {
	return &PropertyStore{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "property-store"),
	}
}

func (s *PropertyStore) Name() string { return "redis" }

func propertyKey(uri string) string {
	return propertyKeyPrefix + uri
}

func (s *PropertyStore) Write(ctx context.Context, res *parser.Result) error {
	key := propertyKey(res.DocInfo.URI)
	if isRemoval(res.DocInfo) {
		if err := s.store.Del(ctx, key); err != nil {
			return fmt.Errorf("removing properties of %s: %w", res.DocInfo.URI, err)
		}
		return nil
	}
	props := res.Properties.Strings()
	if err := s.store.ReplaceHash(ctx, key, props, s.ttl); err != nil {
		return err
	}
	s.logger.Debug("properties stored", "uri", res.DocInfo.URI, "count", len(props))
	return nil
}

// Get returns the stored properties of uri, empty when none are stored.
func (s *PropertyStore) Get(ctx context.Context, uri string) (map[string]string, error) {
	props, err := s.store.HashGetAll(ctx, propertyKey(uri))
	if err != nil {
		return nil, fmt.Errorf("reading properties of %s: %w", uri, err)
	}
	return props, nil
}
