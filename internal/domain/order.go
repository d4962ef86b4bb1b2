package domain

import "time"

// Status possíveis de um pedido. O pedido nasce "pendiente" ao confirmar o
// pagamento e avança apenas por edição administrativa.
const (
	OrderStatusPending   = "pendiente"
	OrderStatusShipped   = "enviado"
	OrderStatusDelivered = "entregado"
	OrderStatusCancelled = "cancelado"
)

// Order representa um pedido confirmado (o registro contábil da venda).
// A escrita do pedido é independente da baixa de estoque: o pedido é
// gravado mesmo que a atualização de estoque falhe parcialmente.
type Order struct {
	ID            string      `json:"id"`
	SessionID     string      `json:"session_id"` // Identificador opaco da sessão de pagamento
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	ShippingAddr  string      `json:"shipping_address,omitempty"`
	Lines         []OrderLine `json:"items"`
	Total         int         `json:"total"`    // Em pesos inteiros
	Shipping      int         `json:"shipping"` // Em pesos inteiros
	Status        string      `json:"status"`
	Paid          bool        `json:"paid"`
	CreatedAt     time.Time   `json:"created_at"`
}
