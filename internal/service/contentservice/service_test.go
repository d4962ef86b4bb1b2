package contentservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/cache"
	"legado/internal/pkg/logger"
	"legado/internal/service/contentservice"
)

// MockContentRepository é uma implementação mock da interface ContentRepository
type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) Upsert(ctx context.Context, entry domain.ContentEntry) (domain.ContentEntry, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(domain.ContentEntry), args.Error(1)
}

func (m *MockContentRepository) Find(ctx context.Context, section, key string) (domain.ContentEntry, error) {
	args := m.Called(ctx, section, key)
	return args.Get(0).(domain.ContentEntry), args.Error(1)
}

func (m *MockContentRepository) FindBySection(ctx context.Context, section string) ([]domain.ContentEntry, error) {
	args := m.Called(ctx, section)
	return args.Get(0).([]domain.ContentEntry), args.Error(1)
}

// MockCache é uma implementação mock da interface cache.Client
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) GetInt(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Incr(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// TestIsMaintenanceMode_Success_CacheHit responde do cache sem tocar o DB.
func TestIsMaintenanceMode_Success_CacheHit(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockCache := new(MockCache)
	svc := contentservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("error"))

	mockCache.On("Get", mock.Anything, mock.AnythingOfType("string")).Return("true", nil)

	assert.True(t, svc.IsMaintenanceMode(context.Background()))
	mockRepo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

// TestIsMaintenanceMode_Success_CacheMissRepopulates consulta o DB no miss
// e repovoa o cache com o TTL configurado.
func TestIsMaintenanceMode_Success_CacheMissRepopulates(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockCache := new(MockCache)
	ttl := 30 * time.Second
	svc := contentservice.NewService(mockRepo, mockCache, ttl, logger.NewLogger("error"))

	mockCache.On("Get", mock.Anything, mock.AnythingOfType("string")).Return("", cache.ErrCacheMiss)
	mockRepo.On("Find", mock.Anything, domain.ContentSectionSettings, domain.ContentKeyMaintenance).
		Return(domain.ContentEntry{Section: domain.ContentSectionSettings, Key: domain.ContentKeyMaintenance, Content: "true"}, nil)
	mockCache.On("Set", mock.Anything, mock.AnythingOfType("string"), "true", ttl).Return(nil)

	assert.True(t, svc.IsMaintenanceMode(context.Background()))
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

// TestIsMaintenanceMode_Success_FailOpen deixa a loja aberta quando cache e
// DB estão indisponíveis.
func TestIsMaintenanceMode_Success_FailOpen(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockCache := new(MockCache)
	svc := contentservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("error"))

	mockCache.On("Get", mock.Anything, mock.AnythingOfType("string")).Return("", cache.ErrCacheMiss)
	mockRepo.On("Find", mock.Anything, domain.ContentSectionSettings, domain.ContentKeyMaintenance).
		Return(domain.ContentEntry{}, apperror.NewDBError("DB fora do ar", assert.AnError))

	assert.False(t, svc.IsMaintenanceMode(context.Background()))
}

// TestSetMaintenanceMode_Success_InvalidatesCache grava o ajuste e apaga a
// chave do cache na hora, sem esperar o TTL.
func TestSetMaintenanceMode_Success_InvalidatesCache(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockCache := new(MockCache)
	svc := contentservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("error"))

	saved := domain.ContentEntry{Section: domain.ContentSectionSettings, Key: domain.ContentKeyMaintenance, Content: "true"}
	mockRepo.On("Upsert", mock.Anything, mock.AnythingOfType("domain.ContentEntry")).Return(saved, nil)
	mockCache.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	err := svc.SetMaintenanceMode(context.Background(), true)

	assert.NoError(t, err)
	mockCache.AssertExpectations(t)
}

// TestUpsertEntry_Success_NonSettingsSkipsCache não mexe no cache para
// conteúdo fora da seção de ajustes.
func TestUpsertEntry_Success_NonSettingsSkipsCache(t *testing.T) {
	mockRepo := new(MockContentRepository)
	mockCache := new(MockCache)
	svc := contentservice.NewService(mockRepo, mockCache, time.Minute, logger.NewLogger("error"))

	entry := domain.ContentEntry{Section: "hero", Key: "titulo", Content: "Bienvenidos"}
	mockRepo.On("Upsert", mock.Anything, entry).Return(entry, nil)

	_, err := svc.UpsertEntry(context.Background(), entry)

	assert.NoError(t, err)
	mockCache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
