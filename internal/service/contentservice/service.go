package contentservice

import (
	"context"
	"errors"
	"time"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/cache"
	"legado/internal/pkg/logger"
)

// maintenanceCacheKey guarda o valor do modo manutenção no cache.
const maintenanceCacheKey = "legado:settings:maintenance_mode"

// ContentRepository define o contrato que o serviço espera da persistência
// do conteúdo do site.
type ContentRepository interface {
	Upsert(ctx context.Context, entry domain.ContentEntry) (domain.ContentEntry, error)
	Find(ctx context.Context, section, key string) (domain.ContentEntry, error)
	FindBySection(ctx context.Context, section string) ([]domain.ContentEntry, error)
}

// Service serve o conteúdo editável do site. O modo manutenção é lido em
// todo request público, então passa por um cache com TTL; o cache é
// injetado (nunca estado global de módulo) e invalidado a cada escrita nos
// ajustes — uma mudança de configuração nunca espera o TTL expirar.
type Service struct {
	repo   ContentRepository
	cache  cache.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Conteúdo.
func NewService(repo ContentRepository, cacheClient cache.Client, ttl time.Duration, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cacheClient,
		ttl:    ttl,
		logger: log,
	}
}

// GetSection devolve todos os blocos de conteúdo de uma seção (loja pública).
func (s *Service) GetSection(ctx context.Context, section string) ([]domain.ContentEntry, error) {
	if section == "" {
		return nil, apperror.NewValidationError("A seção de conteúdo é obrigatória.")
	}
	return s.repo.FindBySection(ctx, section)
}

// UpsertEntry grava um bloco de conteúdo (back-office). Escritas na seção
// de ajustes invalidam o cache na hora.
func (s *Service) UpsertEntry(ctx context.Context, entry domain.ContentEntry) (domain.ContentEntry, error) {
	if entry.Section == "" || entry.Key == "" {
		return domain.ContentEntry{}, apperror.NewValidationError("Seção e chave do conteúdo são obrigatórias.")
	}

	saved, err := s.repo.Upsert(ctx, entry)
	if err != nil {
		return domain.ContentEntry{}, err
	}

	if saved.Section == domain.ContentSectionSettings {
		if err := s.cache.Delete(ctx, maintenanceCacheKey); err != nil {
			// Cache indisponível: o TTL ainda limita o atraso da mudança.
			s.logger.Warn("Falha ao invalidar cache de ajustes.", map[string]interface{}{"key": saved.Key})
		}
	}

	return saved, nil
}

// IsMaintenanceMode informa se a loja está fechada para manutenção.
// Lê do cache primeiro; na falta, consulta o DB e repovoa com TTL. Cache e
// DB indisponíveis deixam a loja aberta: manutenção é um recurso de
// conveniência, nunca um motivo para derrubar a venda.
func (s *Service) IsMaintenanceMode(ctx context.Context) bool {
	cached, err := s.cache.Get(ctx, maintenanceCacheKey)
	if err == nil {
		return cached == "true"
	}
	if err != cache.ErrCacheMiss {
		s.logger.Warn("Cache de ajustes indisponível; consultando DB.", nil)
	}

	entry, err := s.repo.Find(ctx, domain.ContentSectionSettings, domain.ContentKeyMaintenance)
	if err != nil {
		var notFound *apperror.NotFoundError
		if !errors.As(err, &notFound) {
			s.logger.Error("Falha ao consultar modo manutenção no DB.", err)
		}
		return false
	}

	value := "false"
	if entry.Content == "true" {
		value = "true"
	}
	if err := s.cache.Set(ctx, maintenanceCacheKey, value, s.ttl); err != nil {
		s.logger.Warn("Falha ao repovoar cache de ajustes.", nil)
	}
	return value == "true"
}

// SetMaintenanceMode liga ou desliga o modo manutenção (back-office).
func (s *Service) SetMaintenanceMode(ctx context.Context, enabled bool) error {
	content := "false"
	if enabled {
		content = "true"
	}
	_, err := s.UpsertEntry(ctx, domain.ContentEntry{
		Section: domain.ContentSectionSettings,
		Key:     domain.ContentKeyMaintenance,
		Content: content,
	})
	if err != nil {
		return err
	}
	s.logger.Info("Modo manutenção atualizado.", map[string]interface{}{"enabled": enabled})
	return nil
}
