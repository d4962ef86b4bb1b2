package content

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

// ContentService define o contrato que o Handler espera da camada de Serviço.
type ContentService interface {
	GetSection(ctx context.Context, section string) ([]domain.ContentEntry, error)
}

// Handler serve o conteúdo editável da loja pública.
type Handler struct {
	Service ContentService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Serviço e o Logger.
func NewHandler(svc ContentService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			json.NewEncoder(w).Encode(data)
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// GetSectionHandler lida com GET /v1/content/{section}.
//
// @Summary Lista o conteúdo de uma seção do site
// @Tags content
// @Produce json
// @Param section path string true "Nome da seção"
// @Success 200 {array} domain.ContentEntry
// @Failure 400 {object} domain.ErrorResponse
// @Router /v1/content/{section} [get]
func (h *Handler) GetSectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	segments := strings.Split(path, "/")
	if len(segments) != 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou seção ausente."), http.StatusOK)
		return
	}

	entries, err := h.Service.GetSection(r.Context(), segments[2])
	h.handleServiceResponse(w, r, entries, err, http.StatusOK)
}
