package productservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
	"legado/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func intPtr(n int) *int { return &n }

// TestCreateProduct_Success cria um produto válido com tallas e variantes.
func TestCreateProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))

	product := domain.Product{
		Name:  "Playera Oficial",
		Price: 100,
		Sizes: []string{"CH", "M", "G"},
		Variants: []domain.Variant{
			{Name: "Negra", Stock: domain.StockMap{"CH": intPtr(5), "M": nil}},
		},
	}

	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Product")).
		Return(product, nil)

	created, err := svc.CreateProduct(context.Background(), product)

	assert.NoError(t, err)
	assert.Equal(t, product.Name, created.Name)
	mockRepo.AssertExpectations(t)
}

// TestCreateProduct_Fail_MissingName rejeita produto sem nome.
func TestCreateProduct_Fail_MissingName(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))

	_, err := svc.CreateProduct(context.Background(), domain.Product{Price: 100})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateProduct_Fail_NegativeSimpleStock nunca deixa um contador
// negativo entrar no armazenamento.
func TestCreateProduct_Fail_NegativeSimpleStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))

	_, err := svc.CreateProduct(context.Background(), domain.Product{
		Name:  "Gorra Legado",
		Price: 170,
		Stock: intPtr(-1),
	})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestUpdateProduct_Fail_NegativeVariantStock rejeita um contador negativo
// dentro do mapa de uma variante.
func TestUpdateProduct_Fail_NegativeVariantStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))

	_, err := svc.UpdateProduct(context.Background(), domain.Product{
		ID:    uuid.New().String(),
		Name:  "Playera Oficial",
		Price: 100,
		Sizes: []string{"CH"},
		Variants: []domain.Variant{
			{Name: "Negra", Stock: domain.StockMap{"CH": intPtr(-3)}},
		},
	})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestUpdateProduct_Fail_UnknownSizeInStockMap rejeita uma talla no mapa
// que não existe na lista de tallas do produto.
func TestUpdateProduct_Fail_UnknownSizeInStockMap(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))

	_, err := svc.UpdateProduct(context.Background(), domain.Product{
		ID:    uuid.New().String(),
		Name:  "Playera Oficial",
		Price: 100,
		Sizes: []string{"CH", "M"},
		Variants: []domain.Variant{
			{Name: "Negra", Stock: domain.StockMap{"XXL": intPtr(2)}},
		},
	})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

// TestUpdateProduct_Success_AdminRestock permite que uma edição
// administrativa aumente o estoque (a única operação que aumenta).
func TestUpdateProduct_Success_AdminRestock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))

	product := domain.Product{
		ID:    uuid.New().String(),
		Name:  "Gorra Legado",
		Price: 170,
		Stock: intPtr(50),
	}
	mockRepo.On("Update", mock.Anything, product).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), product)

	assert.NoError(t, err)
	assert.Equal(t, 50, *updated.Stock)
	mockRepo.AssertExpectations(t)
}

// TestListProducts_Success_ActiveFilter repassa o filtro da loja pública.
func TestListProducts_Success_ActiveFilter(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))

	filter := domain.ProductFilter{Category: "gorras", ActiveOnly: true}
	mockRepo.On("FindAll", mock.Anything, filter).Return([]domain.Product{{Name: "Gorra Legado"}}, nil)

	products, err := svc.ListProducts(context.Background(), filter)

	assert.NoError(t, err)
	assert.Len(t, products, 1)
	mockRepo.AssertExpectations(t)
}
