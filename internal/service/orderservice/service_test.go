package orderservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
	"legado/internal/pkg/payment"
	"legado/internal/service/orderservice"
)

// MockOrderRepository é uma implementação mock da interface OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	args := m.Called(ctx, order)
	// Permite devolver o próprio pedido gravado (Save idempotente).
	if fn, ok := args.Get(0).(func(context.Context, domain.Order) domain.Order); ok {
		return fn(ctx, order), args.Error(1)
	}
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySessionID(ctx context.Context, sessionID string) (domain.Order, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

// MockMailer é uma implementação mock da interface mailer.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOrderConfirmation(order domain.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

// TestRecord_Success grava o pedido pendente e dispara a confirmação.
func TestRecord_Success(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockMailer := new(MockMailer)
	svc := orderservice.NewService(mockRepo, mockMailer, logger.NewLogger("error"))

	sessionID := "cs_test_" + uuid.New().String()
	result := payment.SessionResult{
		ID:            sessionID,
		Paid:          true,
		CustomerName:  "María",
		CustomerEmail: "maria@example.com",
		Total:         420,
		Shipping:      150,
		Lines:         []domain.OrderLine{{Name: "Gorra Legado", Quantity: 1, Price: 270}},
	}

	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Order")).
		Return(func(ctx context.Context, order domain.Order) domain.Order { return order }, nil)
	mockMailer.On("SendOrderConfirmation", mock.AnythingOfType("domain.Order")).Return(nil)

	order, err := svc.Record(context.Background(), result)

	assert.NoError(t, err)
	assert.Equal(t, sessionID, order.SessionID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.Paid)
	mockMailer.AssertExpectations(t)
}

// TestRecord_Success_DistinctSessionsGetDistinctIDs garante que duas sessões
// confirmadas no mesmo milissegundo recebem IDs de pedido diferentes.
func TestRecord_Success_DistinctSessionsGetDistinctIDs(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockMailer := new(MockMailer)
	svc := orderservice.NewService(mockRepo, mockMailer, logger.NewLogger("error"))

	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Order")).
		Return(func(ctx context.Context, order domain.Order) domain.Order { return order }, nil)

	first, err := svc.Record(context.Background(), payment.SessionResult{ID: "cs_test_a", Paid: true})
	assert.NoError(t, err)
	second, err := svc.Record(context.Background(), payment.SessionResult{ID: "cs_test_b", Paid: true})
	assert.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	mockMailer.AssertNotCalled(t, "SendOrderConfirmation", mock.Anything)
}

// TestRecord_Success_MailFailureDoesNotFailOrder trata o e-mail como
// best-effort: falha de SMTP nunca falha o registro do pedido.
func TestRecord_Success_MailFailureDoesNotFailOrder(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockMailer := new(MockMailer)
	svc := orderservice.NewService(mockRepo, mockMailer, logger.NewLogger("error"))

	result := payment.SessionResult{ID: "cs_test_1", Paid: true, CustomerEmail: "maria@example.com"}
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Order")).
		Return(func(ctx context.Context, order domain.Order) domain.Order { return order }, nil)
	mockMailer.On("SendOrderConfirmation", mock.AnythingOfType("domain.Order")).
		Return(assert.AnError)

	_, err := svc.Record(context.Background(), result)

	assert.NoError(t, err)
}

// TestRecord_Success_DuplicateSessionSkipsMail não reenvia a confirmação
// quando a sessão já tinha pedido gravado (webhook e verificação correm em
// paralelo; só a primeira chamada grava).
func TestRecord_Success_DuplicateSessionSkipsMail(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockMailer := new(MockMailer)
	svc := orderservice.NewService(mockRepo, mockMailer, logger.NewLogger("error"))

	existing := domain.Order{ID: "ORD-1", SessionID: "cs_test_dup", CustomerEmail: "maria@example.com", Paid: true}
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Order")).Return(existing, nil)

	order, err := svc.Record(context.Background(), payment.SessionResult{ID: "cs_test_dup", Paid: true, CustomerEmail: "maria@example.com"})

	assert.NoError(t, err)
	assert.Equal(t, "ORD-1", order.ID)
	mockMailer.AssertNotCalled(t, "SendOrderConfirmation", mock.Anything)
}

// TestRecord_Fail_UnpaidSession nunca registra pedido sem pagamento.
func TestRecord_Fail_UnpaidSession(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockMailer := new(MockMailer)
	svc := orderservice.NewService(mockRepo, mockMailer, logger.NewLogger("error"))

	_, err := svc.Record(context.Background(), payment.SessionResult{ID: "cs_test_2", Paid: false})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestUpdateStatus_Fail_UnknownStatus rejeita um estado fora do ciclo de
// cumprimento.
func TestUpdateStatus_Fail_UnknownStatus(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	svc := orderservice.NewService(mockRepo, new(MockMailer), logger.NewLogger("error"))

	err := svc.UpdateStatus(context.Background(), "ORD-1", "extraviado")

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
