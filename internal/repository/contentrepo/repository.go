package contentrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
)

// ContentRepository persiste os blocos de conteúdo editável do site,
// chaveados por (section, key).
type ContentRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewContentRepository cria uma nova instância do ContentRepository, injetando o DB.
func NewContentRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *ContentRepository {
	return &ContentRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// Upsert grava um bloco de conteúdo, criando ou substituindo a entrada existente.
func (r *ContentRepository) Upsert(ctx context.Context, entry domain.ContentEntry) (domain.ContentEntry, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	entry.UpdatedAt = time.Now()

	const upsertSQL = `INSERT INTO site_content (section, key, content, image_url, updated_at)
                       VALUES ($1, $2, $3, $4, $5)
                       ON CONFLICT (section, key) DO UPDATE
                       SET content = EXCLUDED.content, image_url = EXCLUDED.image_url, updated_at = EXCLUDED.updated_at`

	_, err := r.DB.ExecContext(ctxTimeout, upsertSQL,
		entry.Section, entry.Key, entry.Content, entry.ImageURL, entry.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao gravar conteúdo no DB.", err)
		return domain.ContentEntry{}, apperror.NewDBError("falha ao gravar conteúdo", err)
	}

	r.logger.Info("Conteúdo gravado com sucesso.", map[string]interface{}{"section": entry.Section, "key": entry.Key})
	return entry, nil
}

// Find busca um bloco de conteúdo específico por seção e chave.
func (r *ContentRepository) Find(ctx context.Context, section, key string) (domain.ContentEntry, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT section, key, content, image_url, updated_at FROM site_content WHERE section = $1 AND key = $2`

	var entry domain.ContentEntry
	err := r.DB.QueryRowContext(ctxTimeout, query, section, key).Scan(
		&entry.Section, &entry.Key, &entry.Content, &entry.ImageURL, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ContentEntry{}, apperror.NewNotFoundError(fmt.Sprintf("Conteúdo '%s/%s' não encontrado", section, key))
		}
		r.logger.Error("Falha ao buscar conteúdo no DB.", err)
		return domain.ContentEntry{}, apperror.NewDBError("falha ao buscar conteúdo", err)
	}

	return entry, nil
}

// FindBySection retorna todos os blocos de conteúdo de uma seção.
func (r *ContentRepository) FindBySection(ctx context.Context, section string) ([]domain.ContentEntry, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT section, key, content, image_url, updated_at FROM site_content WHERE section = $1 ORDER BY key`

	rows, err := r.DB.QueryContext(ctxTimeout, query, section)
	if err != nil {
		r.logger.Error("Falha ao listar conteúdo no DB.", err)
		return nil, apperror.NewDBError("falha ao listar conteúdo", err)
	}
	defer rows.Close()

	entries := []domain.ContentEntry{}
	for rows.Next() {
		var entry domain.ContentEntry
		if err := rows.Scan(&entry.Section, &entry.Key, &entry.Content, &entry.ImageURL, &entry.UpdatedAt); err != nil {
			r.logger.Error("Falha ao escanear linha de conteúdo.", err)
			return nil, apperror.NewDBError("falha ao escanear conteúdo", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("falha ao iterar conteúdo", err)
	}

	return entries, nil
}
