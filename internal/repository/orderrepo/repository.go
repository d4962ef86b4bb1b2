package orderrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
)

// OrderRepository é o Livro de Pedidos: registra as vendas confirmadas,
// de forma independente da baixa de estoque.
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// Save registra o pedido. A sessão de pagamento é única: se o webhook e a
// verificação pós-checkout tentarem registrar o mesmo pedido, só a primeira
// escrita prevalece e a segunda é um no-op silencioso.
func (r *OrderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.logger.Debug("Iniciando Save de pedido no repositório.", map[string]interface{}{"order_id": order.ID, "session_id": order.SessionID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	itemsJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return domain.Order{}, apperror.NewInternalError("falha ao serializar linhas do pedido", err)
	}

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	const insertSQL = `
        INSERT INTO orders (id, session_id, customer_name, customer_email, shipping_address,
                            items, total, shipping, status, paid, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (session_id) DO NOTHING`

	result, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		order.ID, order.SessionID, order.CustomerName, order.CustomerEmail, order.ShippingAddr,
		itemsJSON, order.Total, order.Shipping, order.Status, order.Paid, order.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir pedido no DB.", err)
		return domain.Order{}, apperror.NewDBError("falha ao inserir pedido", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return domain.Order{}, apperror.NewDBError("falha ao verificar linhas afetadas", err)
	}
	if rows == 0 {
		// Pedido já registrado para esta sessão: devolve o existente.
		r.logger.Info("Pedido já existia para a sessão; registro ignorado.", map[string]interface{}{"session_id": order.SessionID})
		return r.FindBySessionID(ctx, order.SessionID)
	}

	r.logger.Info("Pedido registrado com sucesso.", map[string]interface{}{"order_id": order.ID, "total": order.Total})
	return order, nil
}

const orderColumns = `id, session_id, customer_name, customer_email, shipping_address,
       items, total, shipping, status, paid, created_at`

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (domain.Order, error) {
	var o domain.Order
	var itemsJSON []byte

	err := row.Scan(
		&o.ID, &o.SessionID, &o.CustomerName, &o.CustomerEmail, &o.ShippingAddr,
		&itemsJSON, &o.Total, &o.Shipping, &o.Status, &o.Paid, &o.CreatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Lines); err != nil {
			o.Lines = nil
		}
	}
	return o, nil
}

// FindBySessionID busca o pedido registrado para uma sessão de pagamento.
func (r *OrderRepository) FindBySessionID(ctx context.Context, sessionID string) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1`

	o, err := scanOrder(r.DB.QueryRowContext(ctxTimeout, query, sessionID))
	if err == sql.ErrNoRows {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido da sessão %s não foi encontrado.", sessionID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido por sessão no DB.", err)
		return domain.Order{}, apperror.NewDBError("falha ao buscar pedido por sessão", err)
	}

	return o, nil
}

// FindAll lista os pedidos, mais recentes primeiro (back-office).
func (r *OrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar pedidos no DB.", err)
		return nil, apperror.NewDBError("falha ao listar pedidos", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperror.NewDBError("falha ao mapear pedido", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("falha ao percorrer pedidos", err)
	}

	return orders, nil
}

// UpdateStatus altera o status de um pedido (edição administrativa).
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID, status string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE orders SET status = $2 WHERE id = $1`, orderID, status,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar status do pedido no DB.", err)
		return apperror.NewDBError("falha ao atualizar status do pedido", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("falha ao verificar linhas afetadas", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não foi encontrado.", orderID))
	}

	return nil
}
