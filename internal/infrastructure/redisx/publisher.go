package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

var _ inventory.EventPublisher = (*EventPublisher)(nil)

// EventPublisher publica eventos de dominio por Redis pub/sub. Un canal por
// tipo de evento (kardex:events:<nombre>); los suscriptores (notificaciones,
// facturación, sincronización externa) viven fuera de este servicio.
type EventPublisher struct {
	client *redis.Client
}

// NewEventPublisher construye el publicador.
func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// Publish serializa el evento a JSON y lo publica en su canal.
func (p *EventPublisher) Publish(ctx context.Context, event entity.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventName(), err)
	}
	channel := "kardex:events:" + event.EventName()
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.EventName(), err)
	}
	return nil
}
