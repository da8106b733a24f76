package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidMovement   = errors.New("movimiento de inventario inválido")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrLockTimeout       = errors.New("timeout esperando bloqueo de fila")
)

// InsufficientStockError detalla un rechazo por stock insuficiente: qué producto,
// cuánto había disponible y cuánto se solicitó. Compatible con
// errors.Is(err, ErrInsufficientStock) para los callers que solo clasifican.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s (disponible %s, solicitado %s)",
		e.ProductID, e.Available.String(), e.Requested.String())
}

// Is hace que el error tipado se clasifique como ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewInsufficientStock construye el error tipado con las cantidades de diagnóstico.
func NewInsufficientStock(productID, warehouseID string, available, requested decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Available:   available,
		Requested:   requested,
	}
}
