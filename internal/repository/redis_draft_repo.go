package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parisxmas/formcraft/internal/models"
)

const draftKeyPrefix = "formcraft:draft:"

// RedisDraftRepo keeps drafts as JSON values that expire after ttl.
type RedisDraftRepo struct {
	client *redis.Client
	ttl    time.Duration
}

var _ DraftStore = (*RedisDraftRepo)(nil)

func NewRedisDraftRepo(client *redis.Client, ttl time.Duration) *RedisDraftRepo {
	return &RedisDraftRepo{client: client, ttl: ttl}
}

func (r *RedisDraftRepo) Get(ctx context.Context, id string) (models.Draft, bool, error) {
	v, err := r.client.Get(ctx, draftKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return models.Draft{}, false, nil
	}
	if err != nil {
		return models.Draft{}, false, err
	}

	var d models.Draft
	if err := json.Unmarshal([]byte(v), &d); err != nil {
		return models.Draft{}, false, err
	}
	return d, true, nil
}

func (r *RedisDraftRepo) Set(ctx context.Context, draft models.Draft) error {
	b, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, draftKey(draft.ID), b, r.ttl).Err()
}

func (r *RedisDraftRepo) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, draftKey(id)).Err()
}

func draftKey(id string) string {
	return draftKeyPrefix + id
}
