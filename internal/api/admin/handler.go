package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
	"legado/internal/pkg/middleware"
)

// ProductService define as operações de catálogo usadas pelo back-office.
type ProductService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// OrderService define as operações de pedidos usadas pelo back-office.
type OrderService interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
}

// UserService define a autenticação e o cadastro de administradores.
type UserService interface {
	Register(ctx context.Context, credentials domain.AdminCredentials) (domain.AdminUser, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// ContentService define a edição de conteúdo e o modo manutenção.
type ContentService interface {
	UpsertEntry(ctx context.Context, entry domain.ContentEntry) (domain.ContentEntry, error)
	SetMaintenanceMode(ctx context.Context, enabled bool) error
}

// Handler agrupa todos os endpoints do back-office.
type Handler struct {
	Products ProductService
	Orders   OrderService
	Users    UserService
	Content  ContentService
	Logger   logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Serviços e o Logger.
func NewHandler(products ProductService, orders OrderService, users UserService, content ContentService, log logger.Logger) *Handler {
	return &Handler{
		Products: products,
		Orders:   orders,
		Users:    users,
		Content:  content,
		Logger:   log,
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

// LoginHandler lida com POST /v1/admin/login.
//
// @Summary Autentica um administrador e devolve um JWT
// @Tags admin
// @Accept json
// @Produce json
// @Param credentials body domain.AdminCredentials true "Credenciais"
// @Success 200 {object} map[string]string
// @Failure 401 {object} domain.ErrorResponse
// @Router /v1/admin/login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var credentials domain.AdminCredentials
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	token, err := h.Users.Login(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]string{"token": token}, nil, http.StatusOK)
}

// RegisterUserHandler lida com POST /v1/admin/users.
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var credentials domain.AdminCredentials
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	user, err := h.Users.Register(r.Context(), credentials)
	h.handleServiceResponse(w, r, user, err, http.StatusCreated)
}

// ProductsHandler lida com GET e POST em /v1/admin/products.
// O back-office vê o catálogo inteiro, inclusive produtos inativos.
func (h *Handler) ProductsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := h.Products.ListProducts(r.Context(), domain.ProductFilter{
			Category: r.URL.Query().Get("category"),
		})
		h.handleServiceResponse(w, r, products, err, http.StatusOK)

	case http.MethodPost:
		if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
			h.Logger.Info("Criação de produto pelo back-office.", map[string]interface{}{"user_id": claims.UserID})
		}

		var product domain.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
			return
		}
		created, err := h.Products.CreateProduct(r.Context(), product)
		h.handleServiceResponse(w, r, created, err, http.StatusCreated)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ProductByIDHandler lida com PUT e DELETE em /v1/admin/products/{id}.
func (h *Handler) ProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	segments := strings.Split(path, "/")
	// ["v1", "admin", "products", "{id}"]
	if len(segments) != 4 || segments[3] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	productID := segments[3]

	switch r.Method {
	case http.MethodPut:
		var product domain.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
			return
		}
		product.ID = productID
		updated, err := h.Products.UpdateProduct(r.Context(), product)
		h.handleServiceResponse(w, r, updated, err, http.StatusOK)

	case http.MethodDelete:
		err := h.Products.DeleteProduct(r.Context(), productID)
		h.handleServiceResponse(w, r, map[string]string{"deleted": productID}, err, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// OrdersHandler lida com GET /v1/admin/orders e
// PUT /v1/admin/orders/{id}/status.
func (h *Handler) OrdersHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	segments := strings.Split(path, "/")

	switch {
	case r.Method == http.MethodGet && len(segments) == 3:
		orders, err := h.Orders.ListOrders(r.Context())
		h.handleServiceResponse(w, r, orders, err, http.StatusOK)

	case r.Method == http.MethodPut && len(segments) == 5 && segments[4] == "status":
		orderID := segments[3]
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
			return
		}
		err := h.Orders.UpdateStatus(r.Context(), orderID, body.Status)
		h.handleServiceResponse(w, r, map[string]string{"id": orderID, "status": body.Status}, err, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ContentHandler lida com PUT /v1/admin/content.
func (h *Handler) ContentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var entry domain.ContentEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	saved, err := h.Content.UpsertEntry(r.Context(), entry)
	h.handleServiceResponse(w, r, saved, err, http.StatusOK)
}

// MaintenanceHandler lida com PUT /v1/admin/maintenance.
func (h *Handler) MaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		h.Logger.Info("Modo manutenção alterado pelo back-office.", map[string]interface{}{
			"user_id": claims.UserID,
			"enabled": body.Enabled,
		})
	}

	err := h.Content.SetMaintenanceMode(r.Context(), body.Enabled)
	h.handleServiceResponse(w, r, map[string]bool{"maintenance_mode": body.Enabled}, err, http.StatusOK)
}
