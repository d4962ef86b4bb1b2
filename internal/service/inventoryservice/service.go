package inventoryservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
)

// ProductFinder define o contrato que o Serviço de Estoque espera do
// armazenamento do catálogo para resolver as linhas de um pedido.
type ProductFinder interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindByName(ctx context.Context, name string) (domain.Product, error)
}

// InventoryStore define o contrato das baixas atômicas e do registro de
// idempotência dos eventos de pagamento.
type InventoryStore interface {
	DecrementSimple(ctx context.Context, productID string, quantity int) error
	DecrementVariant(ctx context.Context, productID, variantName, sizeKey string, quantity int) error
	IsProcessed(ctx context.Context, sessionID string) (bool, error)
	MarkProcessed(ctx context.Context, sessionID string) error
}

// Service é o Livro de Estoque: responde consultas de disponibilidade,
// valida carrinhos antes do pagamento e aplica as baixas depois da
// confirmação.
type Service struct {
	products ProductFinder
	store    InventoryStore
	logger   logger.Logger

	retryBase    time.Duration
	retryMaxTrys uint64
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(products ProductFinder, store InventoryStore, log logger.Logger) *Service {
	return &Service{
		products:     products,
		store:        store,
		logger:       log,
		retryBase:    200 * time.Millisecond,
		retryMaxTrys: 3,
	}
}

// GetAvailability responde "quanto resta" de uma combinação
// produto+variante+talla.
func (s *Service) GetAvailability(ctx context.Context, productID, variantName, size string) (domain.StockValue, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.StockValue{}, err
	}
	return product.Availability(variantName, size), nil
}

// GetTotalStock soma o estoque rastreado do produto inteiro, para os
// banners do tipo "só restam N".
func (s *Service) GetTotalStock(ctx context.Context, productID string) (domain.StockValue, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.StockValue{}, err
	}
	return product.TotalStock(), nil
}

// IsOutOfStock informa se o produto inteiro está esgotado.
func (s *Service) IsOutOfStock(ctx context.Context, productID string) (bool, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return false, err
	}
	return product.OutOfStock(), nil
}

// ValidateOrderLines checa o carrinho contra a disponibilidade atual, ANTES
// de abrir a sessão de pagamento. Quantidades da mesma combinação
// produto+variante+talla são somadas entre as linhas antes da comparação, e
// TODAS as falhas são devolvidas de uma vez (não fail-fast) para a loja
// mostrar o erro completo ao cliente.
//
// A checagem é best-effort: o estoque pode mudar entre a validação e a
// confirmação do pagamento. Esse intervalo é um risco aceito do fluxo
// "validar e pagar depois" sem reservas; a sobrevenda residual é corrigida
// manualmente no atendimento.
func (s *Service) ValidateOrderLines(ctx context.Context, lines []domain.OrderLine) ([]domain.InsufficientStock, error) {
	s.logger.Debug("Iniciando validação de carrinho.", map[string]interface{}{"lines": len(lines)})

	type cartEntry struct {
		product   domain.Product
		line      domain.OrderLine
		requested int
	}

	// 1. Agrupar as quantidades por combinação produto+variante+talla.
	entries := map[string]*cartEntry{}
	order := []string{}
	failures := []domain.InsufficientStock{}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperror.NewValidationError(fmt.Sprintf("Quantidade inválida para '%s'.", line.Name))
		}

		product, err := s.resolveProduct(ctx, line)
		if err != nil {
			var notFound *apperror.NotFoundError
			if errors.As(err, &notFound) {
				// Produto removido do catálogo com o carrinho aberto:
				// a linha é impossível de atender.
				failures = append(failures, domain.InsufficientStock{
					ProductID:   line.ProductID,
					ProductName: line.Name,
					VariantName: line.VariantName,
					Size:        line.Size,
					Requested:   line.Quantity,
					Available:   0,
				})
				continue
			}
			return nil, err
		}

		// A chave de agregação é o contador que a baixa realmente debita:
		// no modo simples, rótulos de variante/talla na linha não criam
		// contadores separados.
		key := product.ID
		if product.Mode() == domain.StockModePerVariant {
			key += "|" + line.VariantName + "|" + sizeKey(product, line.Size)
		}
		if entry, ok := entries[key]; ok {
			entry.requested += line.Quantity
			continue
		}
		entries[key] = &cartEntry{product: product, line: line, requested: line.Quantity}
		order = append(order, key)
	}

	// 2. Comparar cada combinação agregada com a disponibilidade.
	for _, key := range order {
		entry := entries[key]
		available := entry.product.Availability(entry.line.VariantName, entry.line.Size)
		if available.Unlimited || entry.requested <= available.Count {
			continue
		}
		failures = append(failures, domain.InsufficientStock{
			ProductID:   entry.product.ID,
			ProductName: entry.product.Name,
			VariantName: entry.line.VariantName,
			Size:        entry.line.Size,
			Requested:   entry.requested,
			Available:   available.Count,
		})
	}

	if len(failures) > 0 {
		s.logger.Info("Carrinho reprovado na validação de estoque.", map[string]interface{}{"failures": len(failures)})
	}
	return failures, nil
}

// ApplyDecrement aplica as baixas de estoque das linhas de um pedido
// confirmado. É idempotente por sessão de pagamento: entregas duplicadas do
// mesmo evento (o contrato realista do webhook é at-least-once) não baixam
// duas vezes.
//
// Falhas em uma linha nunca abortam as demais e nunca bloqueiam ou
// revertem o pagamento já confirmado: produto sumido é registrado e pulado;
// indisponibilidade transitória do armazenamento ganha retry com backoff
// limitado e, esgotado, vira alerta de reconciliação manual.
func (s *Service) ApplyDecrement(ctx context.Context, sessionID string, lines []domain.OrderLine) error {
	processed, err := s.store.IsProcessed(ctx, sessionID)
	if err != nil {
		return err
	}
	if processed {
		s.logger.Info("Evento de pagamento já processado; baixa ignorada.", map[string]interface{}{"session_id": sessionID})
		return nil
	}

	for _, line := range lines {
		s.decrementLine(ctx, sessionID, line)
	}

	if err := s.store.MarkProcessed(ctx, sessionID); err != nil {
		// Sem a marca, uma reentrega repetiria as baixas. Registrar alto.
		s.logger.Error("Falha ao registrar chave de idempotência da baixa.", err)
		return err
	}

	s.logger.Info("Baixa de estoque do pedido concluída.", map[string]interface{}{
		"session_id": sessionID,
		"lines":      len(lines),
	})
	return nil
}

// decrementLine aplica a baixa de uma linha isolada do pedido.
func (s *Service) decrementLine(ctx context.Context, sessionID string, line domain.OrderLine) {
	product, err := s.resolveProduct(ctx, line)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			s.logger.Warn("Produto da linha confirmada não existe mais; baixa pulada.", map[string]interface{}{
				"session_id": sessionID,
				"product":    line.Name,
			})
			return
		}
		s.reconciliationAlert(sessionID, line, err)
		return
	}

	var op func(context.Context) error
	switch {
	case product.Mode() == domain.StockModePerVariant && line.VariantName != "":
		key := sizeKey(product, line.Size)
		op = func(ctx context.Context) error {
			return s.store.DecrementVariant(ctx, product.ID, line.VariantName, key, line.Quantity)
		}
	case product.Mode() == domain.StockModeSimple && product.Stock != nil:
		op = func(ctx context.Context) error {
			return s.store.DecrementSimple(ctx, product.ID, line.Quantity)
		}
	default:
		// Sem controle de estoque para esta combinação: no-op.
		return
	}

	backoff := retry.WithMaxRetries(s.retryMaxTrys, retry.NewExponential(s.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		var unavailable *apperror.UnavailableError
		if errors.As(err, &unavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		s.reconciliationAlert(sessionID, line, err)
	}
}

// reconciliationAlert registra uma baixa que falhou em definitivo: o
// pagamento já aconteceu, então o ajuste vira tarefa manual do atendimento.
func (s *Service) reconciliationAlert(sessionID string, line domain.OrderLine, err error) {
	s.logger.Error(fmt.Sprintf(
		"RECONCILIAÇÃO MANUAL: baixa de estoque falhou (sessão %s, produto '%s', variante '%s', talla '%s', qtd %d).",
		sessionID, line.Name, line.VariantName, line.Size, line.Quantity,
	), err)
}

// resolveProduct localiza o produto de uma linha, preferindo o ID estável.
// O fallback por nome existe apenas para linhas antigas registradas antes
// dos metadados de ID; nomes são editáveis e não são confiáveis.
func (s *Service) resolveProduct(ctx context.Context, line domain.OrderLine) (domain.Product, error) {
	if line.ProductID != "" {
		return s.products.FindByID(ctx, line.ProductID)
	}
	return s.products.FindByName(ctx, line.Name)
}

// sizeKey normaliza a talla de uma linha para a chave do mapa de estoque:
// produtos sem dimensão de talla usam _default.
func sizeKey(product domain.Product, size string) string {
	if size == "" || len(product.Sizes) == 0 {
		return domain.DefaultSizeKey
	}
	return size
}
