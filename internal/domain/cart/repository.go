package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Repository stores carts as Redis hashes keyed by user, one field per
// product ID holding the quantity.
type Repository interface {
	SetItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	GetItems(ctx context.Context, userID uuid.UUID) ([]Item, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRepository creates cart repository
func NewRepository(rdb *redis.Client, ttl time.Duration) Repository {
	return &repository{rdb: rdb, ttl: ttl}
}

func cartKey(userID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", userID)
}

func (r *repository) SetItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	key := cartKey(userID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, productID.String(), quantity)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cart repository set item: %w", err)
	}
	return nil
}

func (r *repository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	if err := r.rdb.HDel(ctx, cartKey(userID), productID.String()).Err(); err != nil {
		return fmt.Errorf("cart repository remove item: %w", err)
	}
	return nil
}

func (r *repository) GetItems(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	fields, err := r.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart repository get items: %w", err)
	}

	items := make([]Item, 0, len(fields))
	for field, value := range fields {
		productID, err := uuid.Parse(field)
		if err != nil {
			continue // skip corrupted fields
		}
		qty, err := strconv.Atoi(value)
		if err != nil || qty <= 0 {
			continue
		}
		items = append(items, Item{ProductID: productID, Quantity: qty})
	}
	return items, nil
}

func (r *repository) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := r.rdb.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("cart repository clear: %w", err)
	}
	return nil
}
