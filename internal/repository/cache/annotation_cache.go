// Package cache keeps hot annotation collections in Redis in front of the
// references table.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smart-reader-be/pkg/overlay"

	"github.com/redis/go-redis/v9"
)

const annotationKeyPrefix = "reader:annotations:"

// AnnotationCache stores each reference's whole annotation collection as one
// JSON value.
type AnnotationCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewAnnotationCache(client redis.UniversalClient, ttl time.Duration) *AnnotationCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AnnotationCache{client: client, ttl: ttl}
}

func (c *AnnotationCache) key(referenceID string) string {
	return annotationKeyPrefix + referenceID
}

// Get reports false on a cache miss.
func (c *AnnotationCache) Get(ctx context.Context, referenceID string) ([]overlay.Annotation, bool, error) {
	raw, err := c.client.Get(ctx, c.key(referenceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached annotations: %w", err)
	}

	var annotations []overlay.Annotation
	if err := json.Unmarshal(raw, &annotations); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached annotations: %w", err)
	}
	if annotations == nil {
		annotations = []overlay.Annotation{}
	}
	return annotations, true, nil
}

func (c *AnnotationCache) Set(ctx context.Context, referenceID string, annotations []overlay.Annotation) error {
	if annotations == nil {
		annotations = []overlay.Annotation{}
	}
	raw, err := json.Marshal(annotations)
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	if err := c.client.Set(ctx, c.key(referenceID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache annotations: %w", err)
	}
	return nil
}

func (c *AnnotationCache) Invalidate(ctx context.Context, referenceID string) error {
	if err := c.client.Del(ctx, c.key(referenceID)).Err(); err != nil {
		return fmt.Errorf("invalidate annotations: %w", err)
	}
	return nil
}
