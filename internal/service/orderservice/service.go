package orderservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
	"legado/internal/pkg/mailer"
	"legado/internal/pkg/payment"
)

// OrderRepository define o contrato que o Serviço de Pedidos espera da
// camada de Persistência. Save é idempotente por sessão de pagamento:
// gravar a mesma sessão duas vezes devolve o pedido já existente.
type OrderRepository interface {
	Save(ctx context.Context, order domain.Order) (domain.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
}

// Service é a estrutura que implementa o registro contábil dos pedidos.
type Service struct {
	repo   OrderRepository
	mailer mailer.Mailer
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Pedidos.
func NewService(repo OrderRepository, m mailer.Mailer, log logger.Logger) *Service {
	return &Service{repo: repo, mailer: m, logger: log}
}

// Record grava o pedido de uma sessão de pagamento confirmada e dispara o
// e-mail de confirmação. O e-mail é best-effort: falha de SMTP é registrada
// e nunca falha o registro do pedido. Pode ser chamado tanto pelo webhook
// quanto pela verificação da loja; só a primeira chamada grava.
func (s *Service) Record(ctx context.Context, result payment.SessionResult) (domain.Order, error) {
	if result.ID == "" {
		return domain.Order{}, apperror.NewValidationError("A sessão de pagamento é obrigatória para registrar o pedido.")
	}
	if !result.Paid {
		return domain.Order{}, apperror.NewValidationError("Sessão sem pagamento confirmado não gera pedido.")
	}

	// O sufixo aleatório evita colisão de chave quando duas sessões
	// distintas confirmam no mesmo milissegundo.
	order := domain.Order{
		ID:            fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8]),
		SessionID:     result.ID,
		CustomerName:  result.CustomerName,
		CustomerEmail: result.CustomerEmail,
		ShippingAddr:  result.ShippingAddr,
		Lines:         result.Lines,
		Total:         result.Total,
		Shipping:      result.Shipping,
		Status:        domain.OrderStatusPending,
		Paid:          true,
	}
	if order.CustomerName == "" {
		order.CustomerName = "Cliente"
	}

	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		s.logger.Error("Falha ao registrar pedido.", err)
		return domain.Order{}, err
	}

	// Pedido novo (não deduplicado): confirmar por e-mail.
	if saved.ID == order.ID && saved.CustomerEmail != "" {
		if err := s.mailer.SendOrderConfirmation(saved); err != nil {
			s.logger.Error("Falha ao enviar e-mail de confirmação do pedido.", err)
		}
	}

	s.logger.Info("Pedido registrado.", map[string]interface{}{
		"order_id":   saved.ID,
		"session_id": saved.SessionID,
		"total":      saved.Total,
	})
	return saved, nil
}

// GetBySessionID busca o pedido de uma sessão de pagamento.
func (s *Service) GetBySessionID(ctx context.Context, sessionID string) (domain.Order, error) {
	if sessionID == "" {
		return domain.Order{}, apperror.NewValidationError("O ID da sessão é obrigatório.")
	}
	return s.repo.FindBySessionID(ctx, sessionID)
}

// ListOrders devolve todos os pedidos, mais recentes primeiro (back-office).
func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.FindAll(ctx)
}

// UpdateStatus muda o estado de cumprimento de um pedido (back-office).
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) error {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
	default:
		return apperror.NewValidationError(fmt.Sprintf("Status de pedido inválido: '%s'.", status))
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return err
	}
	s.logger.Info("Status do pedido atualizado.", map[string]interface{}{"order_id": orderID, "status": status})
	return nil
}
