package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
	"legado/internal/pkg/payment"
	"legado/internal/service/checkoutservice"
)

// CheckoutService define o contrato que o Handler espera da camada de Serviço.
type CheckoutService interface {
	CreateSession(ctx context.Context, req checkoutservice.CheckoutRequest) (payment.Session, []domain.InsufficientStock, error)
	VerifySession(ctx context.Context, sessionID string) (checkoutservice.VerificationResult, error)
	HandleEvent(ctx context.Context, event payment.Event) error
}

// Handler agrupa os endpoints do fluxo de pagamento.
type Handler struct {
	Service CheckoutService
	Gateway payment.Gateway
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Serviço, o
// Gateway (para verificar assinaturas de webhook) e o Logger.
func NewHandler(svc CheckoutService, gateway payment.Gateway, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Gateway: gateway,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d.", status), map[string]interface{}{"path": r.URL.Path, "category": category})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// CreateSessionHandler lida com POST /v1/create-checkout-session.
// Estoque insuficiente devolve 422 com a lista completa de linhas
// reprovadas; a sessão de pagamento não é criada.
//
// @Summary Abre uma sessão de pagamento para o carrinho
// @Tags checkout
// @Accept json
// @Produce json
// @Param cart body checkoutservice.CheckoutRequest true "Carrinho"
// @Success 200 {object} payment.Session
// @Failure 422 {object} map[string]interface{}
// @Failure 400 {object} domain.ErrorResponse
// @Router /v1/create-checkout-session [post]
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req checkoutservice.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	session, failures, err := h.Service.CreateSession(r.Context(), req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	if len(failures) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "insufficient_stock",
			"details": failures,
		})
		return
	}

	h.handleServiceResponse(w, r, session, nil, http.StatusOK)
}

// VerifySessionHandler lida com GET /v1/verify-session/{sessionId}.
//
// @Summary Verifica o pagamento de uma sessão e registra o pedido
// @Tags checkout
// @Produce json
// @Param sessionId path string true "ID da sessão de pagamento"
// @Success 200 {object} checkoutservice.VerificationResult
// @Failure 400 {object} domain.ErrorResponse
// @Router /v1/verify-session/{sessionId} [get]
func (h *Handler) VerifySessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	segments := strings.Split(path, "/")
	if len(segments) != 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID de sessão ausente."), http.StatusOK)
		return
	}

	result, err := h.Service.VerifySession(r.Context(), segments[2])
	h.handleServiceResponse(w, r, result, err, http.StatusOK)
}

// WebhookHandler lida com POST /v1/webhook.
// Assinatura inválida responde 400; depois da assinatura verificada, a
// resposta é SEMPRE 2xx — falha de estoque ou de registro nunca pede
// reentrega ao gateway, porque o pagamento já aconteceu e a baixa é
// idempotente por sessão.
func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		h.Logger.Error("Falha ao ler corpo do webhook.", err)
		http.Error(w, "Erro ao ler requisição", http.StatusBadRequest)
		return
	}

	event, err := h.Gateway.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.Logger.Error("Assinatura de webhook inválida.", err)
		http.Error(w, "Assinatura inválida", http.StatusBadRequest)
		return
	}

	if err := h.Service.HandleEvent(r.Context(), event); err != nil {
		// Registrado no serviço; a resposta continua 200.
		h.Logger.Error("Falha ao processar evento de pagamento.", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}
