package inventory

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// EventPublisher publica eventos de dominio al event sink. Los suscriptores
// (notificaciones, facturación, sincronización externa) están fuera de este módulo.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.DomainEvent) error
}
