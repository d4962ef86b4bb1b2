package checkoutservice

import (
	"context"
	"strings"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
	"legado/internal/pkg/payment"
)

// internalPickupCode habilita o fluxo de pedido interno: preços de tabela
// Goca e retirada no escritório em vez de envio.
const internalPickupCode = "DES-GOCA"

// internalPrices é a tabela de preços internos (Precio Goca), em pesos.
// Produtos fora da tabela mantêm o preço normal.
var internalPrices = map[string]int{
	"Gorra Legado":    170,
	"Mochila Legado":  1677,
	"Maleta de Viaje": 2574,
	"Playera Oficial": 100,
}

// LineValidator define a checagem de disponibilidade do carrinho feita
// antes de abrir a sessão de pagamento.
type LineValidator interface {
	ValidateOrderLines(ctx context.Context, lines []domain.OrderLine) ([]domain.InsufficientStock, error)
}

// DecrementApplier define a baixa de estoque aplicada após a confirmação.
type DecrementApplier interface {
	ApplyDecrement(ctx context.Context, sessionID string, lines []domain.OrderLine) error
}

// OrderRecorder define o registro (idempotente por sessão) do pedido
// confirmado, incluindo o disparo best-effort do e-mail de confirmação.
type OrderRecorder interface {
	Record(ctx context.Context, result payment.SessionResult) (domain.Order, error)
}

// CheckoutRequest é o carrinho enviado pela loja para abrir o pagamento.
type CheckoutRequest struct {
	Lines      []domain.OrderLine `json:"items"`
	PickupCode string             `json:"pickupCode,omitempty"`
}

// VerificationResult é a resposta da checagem pós-checkout da loja.
type VerificationResult struct {
	Paid  bool         `json:"success"`
	Order domain.Order `json:"order,omitempty"`
}

// Service orquestra o fluxo de checkout: valida o carrinho contra o Livro
// de Estoque, resolve preços e envio, abre a sessão no gateway e processa
// os eventos de confirmação.
type Service struct {
	validator LineValidator
	ledger    DecrementApplier
	orders    OrderRecorder
	gateway   payment.Gateway
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Checkout.
func NewService(validator LineValidator, ledger DecrementApplier, orders OrderRecorder, gateway payment.Gateway, log logger.Logger) *Service {
	return &Service{
		validator: validator,
		ledger:    ledger,
		orders:    orders,
		gateway:   gateway,
		logger:    log,
	}
}

// CreateSession valida o carrinho e abre a sessão de pagamento.
// Falhas de estoque voltam como a lista completa de linhas insuficientes
// (sessão não criada); nesse caso o dinheiro nunca se move.
func (s *Service) CreateSession(ctx context.Context, req CheckoutRequest) (payment.Session, []domain.InsufficientStock, error) {
	if len(req.Lines) == 0 {
		return payment.Session{}, nil, apperror.NewValidationError("O carrinho está vazio.")
	}

	failures, err := s.validator.ValidateOrderLines(ctx, req.Lines)
	if err != nil {
		return payment.Session{}, nil, err
	}
	if len(failures) > 0 {
		return payment.Session{}, failures, nil
	}

	internal := req.PickupCode == internalPickupCode

	lines := make([]domain.OrderLine, len(req.Lines))
	copy(lines, req.Lines)
	if internal {
		for i := range lines {
			if price, ok := internalPrices[lines[i].Name]; ok {
				lines[i].Price = price
			}
		}
		s.logger.Info("Pedido interno detectado; preços de tabela aplicados.", nil)
	}

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		Lines:    lines,
		Shipping: shippingOptions(lines, internal),
	})
	if err != nil {
		s.logger.Error("Falha ao criar sessão de pagamento.", err)
		return payment.Session{}, nil, apperror.NewInternalError("Falha ao criar sessão de pagamento.", err)
	}

	s.logger.Info("Sessão de checkout criada.", map[string]interface{}{"session_id": session.ID, "lines": len(lines)})
	return session, nil, nil
}

// VerifySession checa o estado da sessão depois que o cliente volta do
// gateway. Pagamento confirmado registra o pedido (idempotente: o webhook
// pode ter chegado primeiro).
func (s *Service) VerifySession(ctx context.Context, sessionID string) (VerificationResult, error) {
	if sessionID == "" {
		return VerificationResult{}, apperror.NewValidationError("O ID da sessão é obrigatório.")
	}

	result, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.logger.Error("Falha ao consultar sessão no gateway.", err)
		return VerificationResult{}, apperror.NewInternalError("Falha ao consultar sessão de pagamento.", err)
	}

	if !result.Paid {
		return VerificationResult{Paid: false}, nil
	}

	order, err := s.orders.Record(ctx, result)
	if err != nil {
		return VerificationResult{}, err
	}
	return VerificationResult{Paid: true, Order: order}, nil
}

// HandleEvent processa um evento de pagamento já verificado pelo gateway.
// Em checkout.session.completed: registra o pedido, dispara o e-mail e
// aplica a baixa de estoque — os três passos são independentes, e uma
// falha de estoque nunca falha o processamento do evento (o pagamento já
// aconteceu; o ajuste vira reconciliação manual).
func (s *Service) HandleEvent(ctx context.Context, event payment.Event) error {
	if !event.Completed {
		s.logger.Debug("Evento de pagamento ignorado.", map[string]interface{}{"type": event.Type})
		return nil
	}

	s.logger.Info("Pagamento completado.", map[string]interface{}{"session_id": event.SessionID})

	result, err := s.gateway.RetrieveSession(ctx, event.SessionID)
	if err != nil {
		s.logger.Error("Falha ao consultar sessão completada no gateway.", err)
		return apperror.NewInternalError("Falha ao consultar sessão completada.", err)
	}

	lines := result.Lines
	if len(lines) == 0 {
		lines = event.Lines
	}

	if _, err := s.orders.Record(ctx, result); err != nil {
		// Pedido não registrado ainda pode ter a baixa aplicada; seguir.
		s.logger.Error("Falha ao registrar pedido do evento de pagamento.", err)
	}

	if err := s.ledger.ApplyDecrement(ctx, event.SessionID, lines); err != nil {
		s.logger.Error("Falha na baixa de estoque do evento de pagamento.", err)
	}

	return nil
}

// shippingOptions monta as opções de envio do checkout. Itens volumosos
// (maletas e mochilas) pagam a tarifa pesada; pedidos internos retiram no
// escritório sem custo.
func shippingOptions(lines []domain.OrderLine, internal bool) []payment.ShippingOption {
	if internal {
		return []payment.ShippingOption{
			{Name: "Recoger en Oficina (Interno)", Amount: 0},
		}
	}

	heavy := false
	for _, line := range lines {
		if strings.Contains(line.Name, "Maleta") || strings.Contains(line.Name, "Mochila") {
			heavy = true
			break
		}
	}

	if heavy {
		return []payment.ShippingOption{
			{Name: "Envío Estándar (Voluminoso)", Amount: 250},
			{Name: "Envío Express (Voluminoso)", Amount: 350},
		}
	}
	return []payment.ShippingOption{
		{Name: "Envío Estándar", Amount: 150},
		{Name: "Envío Express", Amount: 250},
	}
}
