package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
)

// ProductRepository é a camada de persistência do catálogo (Catalog Store).
// Guarda os produtos com o campo de estoque simples e as variantes (com os
// mapas de estoque aninhados) como JSONB.
type ProductRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

const productColumns = `id, name, category, description, price, image_url, images, gradient,
       sizes, stock, variants, is_active, display_order, created_at, updated_at`

// scanProduct mapeia uma linha do resultado para a entidade Product.
func scanProduct(row interface{ Scan(dest ...interface{}) error }) (domain.Product, error) {
	var p domain.Product
	var imagesJSON, variantsJSON []byte

	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Image,
		&imagesJSON, &p.Gradient, pq.Array(&p.Sizes), &p.Stock, &variantsJSON,
		&p.IsActive, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}

	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			p.Images = nil
		}
	}
	if len(variantsJSON) > 0 {
		// StockMap.UnmarshalJSON já trata entradas malformadas como ilimitadas,
		// então um mapa inválido não derruba a leitura do catálogo.
		if err := json.Unmarshal(variantsJSON, &p.Variants); err != nil {
			p.Variants = nil
		}
	}
	return p, nil
}

// Save insere um novo Produto no catálogo.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.logger.Debug("Iniciando Save de produto no repositório.", map[string]interface{}{"product_id": product.ID, "name": product.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return domain.Product{}, apperror.NewInternalError("falha ao serializar imagens", err)
	}
	variantsJSON, err := json.Marshal(product.Variants)
	if err != nil {
		return domain.Product{}, apperror.NewInternalError("falha ao serializar variantes", err)
	}

	const insertSQL = `
        INSERT INTO products (id, name, category, description, price, image_url, images, gradient,
                              sizes, stock, variants, is_active, display_order, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err = r.DB.ExecContext(ctxTimeout, insertSQL,
		product.ID, product.Name, product.Category, product.Description, product.Price,
		product.Image, imagesJSON, product.Gradient, pq.Array(product.Sizes),
		product.Stock, variantsJSON, product.IsActive, product.DisplayOrder,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("falha ao inserir produto", err)
	}

	r.logger.Info("Produto salvo com sucesso no repositório.", map[string]interface{}{"product_id": product.ID})
	return product, nil
}

// Update sobrescreve um produto existente (edição administrativa, incluindo
// os campos de estoque).
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	r.logger.Debug("Iniciando Update de produto no repositório.", map[string]interface{}{"product_id": product.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return apperror.NewInternalError("falha ao serializar imagens", err)
	}
	variantsJSON, err := json.Marshal(product.Variants)
	if err != nil {
		return apperror.NewInternalError("falha ao serializar variantes", err)
	}

	const updateSQL = `
        UPDATE products
        SET name = $2, category = $3, description = $4, price = $5, image_url = $6,
            images = $7, gradient = $8, sizes = $9, stock = $10, variants = $11,
            is_active = $12, display_order = $13, updated_at = $14
        WHERE id = $1`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		product.ID, product.Name, product.Category, product.Description, product.Price,
		product.Image, imagesJSON, product.Gradient, pq.Array(product.Sizes),
		product.Stock, variantsJSON, product.IsActive, product.DisplayOrder, time.Now(),
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return apperror.NewDBError("falha ao atualizar produto", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("falha ao verificar linhas afetadas", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não foi encontrado.", product.ID))
	}

	return nil
}

// Delete remove um produto do catálogo.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover produto no DB.", err)
		return apperror.NewDBError("falha ao remover produto", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("falha ao verificar linhas afetadas", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não foi encontrado.", id))
	}

	r.logger.Info("Produto removido do catálogo.", map[string]interface{}{"product_id": id})
	return nil
}

// FindByID busca um produto pelo identificador estável.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não foi encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto por ID no DB.", err)
		return domain.Product{}, apperror.NewDBError("falha ao buscar produto", err)
	}

	return p, nil
}

// FindByName busca um produto pelo nome de exibição. Usado apenas como
// fallback de resolução para sessões de pagamento antigas sem metadados de
// ID — nomes duplicados colidem, por isso o ID estável é o caminho normal.
func (r *ProductRepository) FindByName(ctx context.Context, name string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE name = $1 ORDER BY created_at LIMIT 1`

	p, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query, name))
	if err == sql.ErrNoRows {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com nome '%s' não foi encontrado.", name))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto por nome no DB.", err)
		return domain.Product{}, apperror.NewDBError("falha ao buscar produto por nome", err)
	}

	return p, nil
}

// FindAll lista os produtos do catálogo ordenados por display_order.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products`
	args := []interface{}{}
	where := ""

	if filter.ActiveOnly {
		where = ` WHERE is_active = TRUE`
	}
	if filter.Category != "" {
		if where == "" {
			where = ` WHERE category = $1`
		} else {
			where += ` AND category = $1`
		}
		args = append(args, filter.Category)
	}
	query += where + ` ORDER BY display_order ASC, created_at ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, apperror.NewDBError("falha ao listar produtos", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear produto do resultado.", err)
			return nil, apperror.NewDBError("falha ao mapear produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("falha ao percorrer produtos", err)
	}

	return products, nil
}
