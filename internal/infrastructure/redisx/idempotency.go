package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/jhoicas/kardex-api/internal/application/sales"
)

var _ sales.IdempotencyCache = (*IdempotencyStore)(nil)

// IdempotencyStore mapa clave de idempotencia → sale_id con TTL corto.
// Deduplicación best-effort: una expiración o caída de Redis no causa ventas
// duplicadas porque la restricción única en la tabla sales es el respaldo durable.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore construye el cache con la ventana de deduplicación.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) key(companyID, key string) string {
	return fmt.Sprintf("kardex:idem:%s:%s", companyID, key)
}

// GetSaleID devuelve el sale_id asociado a la clave, o "" si no está en cache.
func (s *IdempotencyStore) GetSaleID(ctx context.Context, companyID, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(companyID, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("get idempotency key: %w", err)
	}
	return val, nil
}

// StoreSaleID guarda la asociación clave → sale_id con el TTL configurado.
func (s *IdempotencyStore) StoreSaleID(ctx context.Context, companyID, key, saleID string) error {
	if err := s.client.Set(ctx, s.key(companyID, key), saleID, s.ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency key: %w", err)
	}
	return nil
}
