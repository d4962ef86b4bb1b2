package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
}

// InventoryService define as consultas de disponibilidade expostas à loja
// (botões de talla desabilitados, badges de esgotado, banner "só restam N").
type InventoryService interface {
	GetAvailability(ctx context.Context, productID, variantName, size string) (domain.StockValue, error)
	GetTotalStock(ctx context.Context, productID string) (domain.StockValue, error)
	IsOutOfStock(ctx context.Context, productID string) (bool, error)
}

// Handler agrupa os endpoints públicos do catálogo.
type Handler struct {
	Service   ProductService
	Inventory InventoryService
	Logger    logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Serviços e o Logger.
func NewHandler(svc ProductService, inventory InventoryService, log logger.Logger) *Handler {
	return &Handler{
		Service:   svc,
		Inventory: inventory,
		Logger:    log,
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

// ListProductsHandler lida com GET /v1/products.
// A loja pública só vê produtos ativos; ?category= filtra.
//
// @Summary Lista o catálogo público
// @Tags products
// @Produce json
// @Param category query string false "Filtra por categoria"
// @Success 200 {array} domain.Product
// @Failure 500 {object} domain.ErrorResponse
// @Router /v1/products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	filter := domain.ProductFilter{
		Category:   r.URL.Query().Get("category"),
		ActiveOnly: true,
	}

	products, err := h.Service.ListProducts(r.Context(), filter)
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// ProductByIDHandler lida com GET /v1/products/{id} e com o sub-recurso
// GET /v1/products/{id}/availability.
func (h *Handler) ProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	segments := strings.Split(path, "/")

	// ["v1", "products", "{id}"] ou ["v1", "products", "{id}", "availability"]
	switch len(segments) {
	case 3:
		h.getProduct(w, r, segments[2])
	case 4:
		if segments[3] != "availability" {
			h.handleServiceResponse(w, r, nil, apperror.NewNotFoundError("Rota não encontrada."), http.StatusOK)
			return
		}
		h.getAvailability(w, r, segments[2])
	default:
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
	}
}

// @Summary Busca um produto pelo ID
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse
// @Router /v1/products/{id} [get]
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request, id string) {
	product, err := h.Service.GetProductByID(r.Context(), id)
	if err == nil && !product.IsActive {
		err = apperror.NewNotFoundError(fmt.Sprintf("Produto com ID '%s' não encontrado", id))
	}
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// @Summary Consulta disponibilidade de uma combinação produto+variante+talla
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Param variant query string false "Nome da variante"
// @Param size query string false "Talla"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} domain.ErrorResponse
// @Router /v1/products/{id}/availability [get]
func (h *Handler) getAvailability(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	variant := r.URL.Query().Get("variant")
	size := r.URL.Query().Get("size")

	availability, err := h.Inventory.GetAvailability(ctx, id, variant, size)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	total, err := h.Inventory.GetTotalStock(ctx, id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	outOfStock, err := h.Inventory.IsOutOfStock(ctx, id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]interface{}{
		"availability": availability,
		"total_stock":  total,
		"out_of_stock": outOfStock,
	}, nil, http.StatusOK)
}
