package inventoryrepo

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

// InventoryRepository é o armazenamento do Livro de Estoque: aplica as
// baixas atômicas nos contadores e guarda as chaves de idempotência dos
// eventos de pagamento já processados.
//
// Toda baixa é um read-modify-write único dentro de uma transação com
// SELECT ... FOR UPDATE: duas confirmações simultâneas disputando a última
// unidade do mesmo contador serializam no lock de linha e nunca passam de
// zero. Leitura-depois-escrita sem esse lock seria um bug de corretude
// (lost update), não uma simplificação aceitável.
type InventoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewInventoryRepository cria e retorna uma nova instância do Repositório.
func NewInventoryRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *InventoryRepository {
	return &InventoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// DecrementSimple aplica uma baixa no contador simples do produto,
// com piso em zero. Estoque NULL (ilimitado) nunca é tocado.
func (r *InventoryRepository) DecrementSimple(ctx context.Context, productID string, quantity int) error {
	r.logger.Debug("Iniciando baixa de estoque simples.", map[string]interface{}{"product_id": productID, "quantity": quantity})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de baixa de estoque.", err)
		return apperror.NewUnavailableError("falha ao iniciar transação de baixa", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Obter o contador atual com FOR UPDATE para bloquear a linha.
	var stock *int
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT stock FROM products WHERE id = $1 FOR UPDATE`, productID,
	).Scan(&stock)

	if err == sql.ErrNoRows {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto %s não existe mais.", productID))
	}
	if err != nil {
		r.logger.Error("Falha ao selecionar estoque para baixa.", err)
		return apperror.NewUnavailableError("falha ao selecionar estoque para baixa", err)
	}

	// 2. NULL é o marcador permanente de "sem controle": nunca decrementar.
	if stock == nil {
		r.logger.Debug("Estoque simples ilimitado; baixa ignorada.", map[string]interface{}{"product_id": productID})
		return tx.Commit()
	}

	// 3. Aplicar a baixa com piso em zero.
	newStock := domain.ClampDecrement(*stock, quantity)

	_, err = tx.ExecContext(ctxTimeout,
		`UPDATE products SET stock = $2, updated_at = $3 WHERE id = $1`,
		productID, newStock, time.Now(),
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar estoque simples.", err)
		return apperror.NewUnavailableError("falha ao atualizar estoque simples", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar baixa de estoque simples.", err)
		return apperror.NewUnavailableError("falha ao commitar baixa", err)
	}

	r.logger.Info("Estoque simples atualizado.", map[string]interface{}{
		"product_id": productID,
		"previous":   *stock,
		"new_stock":  newStock,
	})
	return nil
}

// DecrementVariant aplica uma baixa na entrada (variante, talla) do mapa de
// estoque, com piso em zero. Mapa ausente, chave ausente ou valor null são
// "sem controle" e nunca são decrementados; um valor inválido no mapa nunca
// é sobrescrito por esta operação (apenas registrado).
func (r *InventoryRepository) DecrementVariant(ctx context.Context, productID, variantName, sizeKey string, quantity int) error {
	r.logger.Debug("Iniciando baixa de estoque por variante.", map[string]interface{}{
		"product_id": productID,
		"variant":    variantName,
		"size":       sizeKey,
		"quantity":   quantity,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de baixa de estoque.", err)
		return apperror.NewUnavailableError("falha ao iniciar transação de baixa", err)
	}
	defer tx.Rollback()

	// 1. Obter as variantes atuais com FOR UPDATE para bloquear a linha.
	var variantsJSON []byte
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT variants FROM products WHERE id = $1 FOR UPDATE`, productID,
	).Scan(&variantsJSON)

	if err == sql.ErrNoRows {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto %s não existe mais.", productID))
	}
	if err != nil {
		r.logger.Error("Falha ao selecionar variantes para baixa.", err)
		return apperror.NewUnavailableError("falha ao selecionar variantes para baixa", err)
	}

	var variants []domain.Variant
	if err := json.Unmarshal(variantsJSON, &variants); err != nil {
		// Dado malformado: registrar e não escrever nada de volta.
		r.logger.Warn("Variantes malformadas no DB; baixa ignorada.", map[string]interface{}{"product_id": productID})
		return tx.Commit()
	}

	// 2. Resolver a célula (variante, talla) e aplicar a baixa com piso em zero.
	applied := false
	for i := range variants {
		if variants[i].Name != variantName {
			continue
		}
		count, tracked := variants[i].Stock[sizeKey]
		if !tracked || count == nil {
			r.logger.Debug("Célula de estoque sem controle; baixa ignorada.", map[string]interface{}{
				"product_id": productID,
				"variant":    variantName,
				"size":       sizeKey,
			})
			return tx.Commit()
		}
		newCount := domain.ClampDecrement(*count, quantity)
		variants[i].Stock[sizeKey] = &newCount
		applied = true
		break
	}

	if !applied {
		r.logger.Warn("Variante da linha comprada não existe no produto; baixa ignorada.", map[string]interface{}{
			"product_id": productID,
			"variant":    variantName,
		})
		return tx.Commit()
	}

	updated, err := json.Marshal(variants)
	if err != nil {
		return apperror.NewInternalError("falha ao serializar variantes atualizadas", err)
	}

	_, err = tx.ExecContext(ctxTimeout,
		`UPDATE products SET variants = $2, updated_at = $3 WHERE id = $1`,
		productID, updated, time.Now(),
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar estoque da variante.", err)
		return apperror.NewUnavailableError("falha ao atualizar estoque da variante", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar baixa de estoque da variante.", err)
		return apperror.NewUnavailableError("falha ao commitar baixa", err)
	}

	r.logger.Info("Estoque da variante atualizado.", map[string]interface{}{
		"product_id": productID,
		"variant":    variantName,
		"size":       sizeKey,
	})
	return nil
}

// IsProcessed verifica se o evento de pagamento (pela sessão) já foi
// processado — a checagem antes de reprocessar entregas duplicadas.
func (r *InventoryRepository) IsProcessed(ctx context.Context, sessionID string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE session_id = $1)`, sessionID,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Falha ao consultar eventos processados.", err)
		return false, apperror.NewUnavailableError("falha ao consultar eventos processados", err)
	}
	return exists, nil
}

// MarkProcessed registra a chave de idempotência após o processamento do
// evento. A inserção é idempotente por si só (ON CONFLICT DO NOTHING).
func (r *InventoryRepository) MarkProcessed(ctx context.Context, sessionID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO processed_events (session_id) VALUES ($1) ON CONFLICT (session_id) DO NOTHING`, sessionID,
	)
	if err != nil {
		r.logger.Error("Falha ao registrar evento processado.", err)
		return apperror.NewUnavailableError("falha ao registrar evento processado", err)
	}
	return nil
}
