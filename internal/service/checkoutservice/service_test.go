package checkoutservice_test

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
	"legado/internal/service/checkoutservice"
)

// MockLineValidator é uma implementação mock da interface LineValidator
type MockLineValidator struct {
	mock.Mock
}

func (m *MockLineValidator) ValidateOrderLines(ctx context.Context, lines []domain.OrderLine) ([]domain.InsufficientStock, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InsufficientStock), args.Error(1)
}

// MockDecrementApplier é uma implementação mock da interface DecrementApplier
type MockDecrementApplier struct {
	mock.Mock
}

func (m *MockDecrementApplier) ApplyDecrement(ctx context.Context, sessionID string, lines []domain.OrderLine) error {
	args := m.Called(ctx, sessionID, lines)
	return args.Error(0)
}

// MockOrderRecorder é uma implementação mock da interface OrderRecorder
type MockOrderRecorder struct {
	mock.Mock
}

func (m *MockOrderRecorder) Record(ctx context.Context, result payment.SessionResult) (domain.Order, error) {
	args := m.Called(ctx, result)
	return args.Get(0).(domain.Order), args.Error(1)
}

// MockGateway é uma implementação mock da interface payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Session), args.Error(1)
}

func (m *MockGateway) RetrieveSession(ctx context.Context, sessionID string) (payment.SessionResult, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(payment.SessionResult), args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (payment.Event, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(payment.Event), args.Error(1)
}

func newService(t *testing.T) (*checkoutservice.Service, *MockLineValidator, *MockDecrementApplier, *MockOrderRecorder, *MockGateway) {
	t.Helper()
	validator := new(MockLineValidator)
	ledger := new(MockDecrementApplier)
	orders := new(MockOrderRecorder)
	gateway := new(MockGateway)
	svc := checkoutservice.NewService(validator, ledger, orders, gateway, logger.NewLogger("error"))
	return svc, validator, ledger, orders, gateway
}

// TestCreateSession_Success cria a sessão quando o carrinho passa na validação.
func TestCreateSession_Success(t *testing.T) {
	svc, validator, _, _, gateway := newService(t)

	lines := []domain.OrderLine{{ProductID: uuid.New().String(), Name: "Gorra Legado", Price: 250, Quantity: 1}}
	validator.On("ValidateOrderLines", mock.Anything, lines).Return([]domain.InsufficientStock{}, nil)
	gateway.On("CreateSession", mock.Anything, mock.AnythingOfType("payment.SessionRequest")).
		Return(payment.Session{ID: "cs_test_123", URL: "https://checkout.stripe.com/c/cs_test_123"}, nil)

	session, failures, err := svc.CreateSession(context.Background(), checkoutservice.CheckoutRequest{Lines: lines})

	assert.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, "cs_test_123", session.ID)
	gateway.AssertExpectations(t)
}

// TestCreateSession_Fail_InsufficientStock devolve todas as falhas de
// estoque sem nunca chamar o gateway: o dinheiro não se move.
func TestCreateSession_Fail_InsufficientStock(t *testing.T) {
	svc, validator, _, _, gateway := newService(t)

	lines := []domain.OrderLine{{ProductID: uuid.New().String(), Name: "Playera Oficial", VariantName: "Negra", Size: "M", Quantity: 3}}
	validator.On("ValidateOrderLines", mock.Anything, lines).Return([]domain.InsufficientStock{
		{ProductName: "Playera Oficial", VariantName: "Negra", Size: "M", Requested: 3, Available: 1},
	}, nil)

	session, failures, err := svc.CreateSession(context.Background(), checkoutservice.CheckoutRequest{Lines: lines})

	assert.NoError(t, err)
	assert.Len(t, failures, 1)
	assert.Empty(t, session.ID)
	gateway.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

// TestCreateSession_Fail_EmptyCart rejeita carrinho vazio antes de tudo.
func TestCreateSession_Fail_EmptyCart(t *testing.T) {
	svc, validator, _, _, _ := newService(t)

	_, _, err := svc.CreateSession(context.Background(), checkoutservice.CheckoutRequest{})

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	validator.AssertNotCalled(t, "ValidateOrderLines", mock.Anything, mock.Anything)
}

// TestCreateSession_Success_InternalPricing aplica a tabela de preços
// internos e a retirada no escritório quando o código de pedido interno vem
// no carrinho.
func TestCreateSession_Success_InternalPricing(t *testing.T) {
	svc, validator, _, _, gateway := newService(t)

	lines := []domain.OrderLine{
		{Name: "Mochila Legado", Price: 1900, Quantity: 1},
		{Name: "Producto Nuevo", Price: 300, Quantity: 1}, // fora da tabela: preço mantido
	}
	validator.On("ValidateOrderLines", mock.Anything, lines).Return([]domain.InsufficientStock{}, nil)

	var captured payment.SessionRequest
	gateway.On("CreateSession", mock.Anything, mock.AnythingOfType("payment.SessionRequest")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(payment.SessionRequest) }).
		Return(payment.Session{ID: "cs_test_interno"}, nil)

	_, failures, err := svc.CreateSession(context.Background(), checkoutservice.CheckoutRequest{
		Lines:      lines,
		PickupCode: "DES-GOCA",
	})

	assert.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, 1677, captured.Lines[0].Price)
	assert.Equal(t, 300, captured.Lines[1].Price)
	assert.Len(t, captured.Shipping, 1)
	assert.Equal(t, "Recoger en Oficina (Interno)", captured.Shipping[0].Name)
	assert.Equal(t, 0, captured.Shipping[0].Amount)
}

// TestCreateSession_Success_HeavyShippingTiers cobra a tarifa volumosa
// quando o carrinho tem maleta ou mochila.
func TestCreateSession_Success_HeavyShippingTiers(t *testing.T) {
	svc, validator, _, _, gateway := newService(t)

	lines := []domain.OrderLine{{Name: "Maleta de Viaje", Price: 2574, Quantity: 1}}
	validator.On("ValidateOrderLines", mock.Anything, lines).Return([]domain.InsufficientStock{}, nil)

	var captured payment.SessionRequest
	gateway.On("CreateSession", mock.Anything, mock.AnythingOfType("payment.SessionRequest")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(payment.SessionRequest) }).
		Return(payment.Session{ID: "cs_test_pesado"}, nil)

	_, _, err := svc.CreateSession(context.Background(), checkoutservice.CheckoutRequest{Lines: lines})

	assert.NoError(t, err)
	assert.Len(t, captured.Shipping, 2)
	assert.Equal(t, 250, captured.Shipping[0].Amount)
	assert.Equal(t, 350, captured.Shipping[1].Amount)
}

// TestVerifySession_Success_PaidRecordsOrder registra o pedido quando o
// pagamento está confirmado.
func TestVerifySession_Success_PaidRecordsOrder(t *testing.T) {
	svc, _, _, orders, gateway := newService(t)

	sessionID := "cs_test_" + uuid.New().String()
	result := payment.SessionResult{ID: sessionID, Paid: true, CustomerEmail: "cliente@example.com", Total: 420}
	gateway.On("RetrieveSession", mock.Anything, sessionID).Return(result, nil)
	orders.On("Record", mock.Anything, result).Return(domain.Order{ID: "ORD-1", SessionID: sessionID, Paid: true}, nil)

	verification, err := svc.VerifySession(context.Background(), sessionID)

	assert.NoError(t, err)
	assert.True(t, verification.Paid)
	assert.Equal(t, "ORD-1", verification.Order.ID)
	orders.AssertExpectations(t)
}

// TestVerifySession_Success_UnpaidNoOrder não registra nada sem pagamento.
func TestVerifySession_Success_UnpaidNoOrder(t *testing.T) {
	svc, _, _, orders, gateway := newService(t)

	sessionID := "cs_test_" + uuid.New().String()
	gateway.On("RetrieveSession", mock.Anything, sessionID).Return(payment.SessionResult{ID: sessionID, Paid: false}, nil)

	verification, err := svc.VerifySession(context.Background(), sessionID)

	assert.NoError(t, err)
	assert.False(t, verification.Paid)
	orders.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

// TestHandleEvent_Success_CompletedAppliesDecrement processa o evento de
// checkout completado: pedido registrado e baixa aplicada.
func TestHandleEvent_Success_CompletedAppliesDecrement(t *testing.T) {
	svc, _, ledger, orders, gateway := newService(t)

	sessionID := "cs_test_" + uuid.New().String()
	lines := []domain.OrderLine{{ProductID: uuid.New().String(), Name: "Gorra Legado", Quantity: 2}}
	result := payment.SessionResult{ID: sessionID, Paid: true, Lines: lines}

	gateway.On("RetrieveSession", mock.Anything, sessionID).Return(result, nil)
	orders.On("Record", mock.Anything, result).Return(domain.Order{ID: "ORD-2"}, nil)
	ledger.On("ApplyDecrement", mock.Anything, sessionID, lines).Return(nil)

	err := svc.HandleEvent(context.Background(), payment.Event{
		Type:      "checkout.session.completed",
		SessionID: sessionID,
		Completed: true,
	})

	assert.NoError(t, err)
	ledger.AssertExpectations(t)
	orders.AssertExpectations(t)
}

// TestHandleEvent_Success_StockFailureNeverFailsEvent trata a falha da
// baixa como reconciliação manual: o evento segue aceito, o pagamento nunca
// é bloqueado.
func TestHandleEvent_Success_StockFailureNeverFailsEvent(t *testing.T) {
	svc, _, ledger, orders, gateway := newService(t)

	sessionID := "cs_test_" + uuid.New().String()
	lines := []domain.OrderLine{{Name: "Gorra Legado", Quantity: 1}}
	result := payment.SessionResult{ID: sessionID, Paid: true, Lines: lines}

	gateway.On("RetrieveSession", mock.Anything, sessionID).Return(result, nil)
	orders.On("Record", mock.Anything, result).Return(domain.Order{}, nil)
	ledger.On("ApplyDecrement", mock.Anything, sessionID, lines).
		Return(apperror.NewUnavailableError("DB fora do ar", nil))

	err := svc.HandleEvent(context.Background(), payment.Event{SessionID: sessionID, Completed: true})

	assert.NoError(t, err)
}

// TestHandleEvent_Success_IgnoresOtherEventTypes só registra eventos que
// não são checkout.session.completed.
func TestHandleEvent_Success_IgnoresOtherEventTypes(t *testing.T) {
	svc, _, ledger, orders, gateway := newService(t)

	err := svc.HandleEvent(context.Background(), payment.Event{
		Type:      "payment_intent.succeeded",
		Completed: false,
	})

	assert.NoError(t, err)
	gateway.AssertNotCalled(t, "RetrieveSession", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "ApplyDecrement", mock.Anything, mock.Anything, mock.Anything)
}
