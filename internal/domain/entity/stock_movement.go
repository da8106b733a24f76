package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario. La dirección está implícita en el tipo:
// in/adjustment+/transfer_in/return suman; out/sale/transfer_out/adjustment- restan.
const (
	MovementTypeIN          = "in"
	MovementTypeOUT         = "out"
	MovementTypeADJUSTMENT  = "adjustment"
	MovementTypeTransferIN  = "transfer_in"
	MovementTypeTransferOUT = "transfer_out"
	MovementTypeSALE        = "sale"
	MovementTypeRETURN      = "return"
)

// ValidMovementType indica si el tipo pertenece al catálogo de movimientos.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeADJUSTMENT,
		MovementTypeTransferIN, MovementTypeTransferOUT,
		MovementTypeSALE, MovementTypeRETURN:
		return true
	}
	return false
}

// Tipos de documento que un movimiento puede citar como referencia.
type ReferenceKind string

const (
	ReferenceNone     ReferenceKind = ""
	ReferenceSale     ReferenceKind = "sale"
	ReferencePurchase ReferenceKind = "purchase"
	ReferenceTransfer ReferenceKind = "transfer"
)

// Reference apunta al documento que originó un movimiento (venta, compra,
// traslado). Es un puntero débil (tipo + id): el kardex no conoce el esquema
// del documento ni lo valida con foreign key.
type Reference struct {
	Kind ReferenceKind `json:"type"`
	ID   string        `json:"id"`
}

// IsZero indica si el movimiento no tiene documento de referencia.
func (r Reference) IsZero() bool {
	return r.Kind == ReferenceNone && r.ID == ""
}

// Valid verifica que el kind sea conocido y que haya ID cuando hay kind.
func (r Reference) Valid() bool {
	switch r.Kind {
	case ReferenceNone:
		return r.ID == ""
	case ReferenceSale, ReferencePurchase, ReferenceTransfer:
		return r.ID != ""
	}
	return false
}

// StockMovement es una entrada inmutable del kardex: registra cada cambio de
// cantidad con foto antes/después. Las correcciones son movimientos
// compensatorios nuevos, nunca ediciones.
type StockMovement struct {
	ID          int64
	CompanyID   string
	ProductID   string
	WarehouseID string // vacío para contextos sin bodega
	Type        string
	Quantity    decimal.Decimal // magnitud, siempre >= 0
	BeforeQty   decimal.Decimal
	AfterQty    decimal.Decimal
	Reference   Reference
	Description string
	CreatedBy   string
	CreatedAt   time.Time
}

// MovementDirection devuelve +1 si el tipo suma stock y -1 si lo resta.
func MovementDirection(movementType string) int {
	switch movementType {
	case MovementTypeOUT, MovementTypeSALE, MovementTypeTransferOUT:
		return -1
	default:
		return 1
	}
}
