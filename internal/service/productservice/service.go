package productservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/logger"
)

// ProductRepository define o contrato que o Serviço de Catálogo espera da
// camada de Persistência.
type ProductRepository interface {
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}

// Service é a estrutura que implementa o Serviço de Catálogo.
type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(repo ProductRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// ListProducts devolve o catálogo filtrado. A loja pública usa
// ActiveOnly=true; o back-office vê tudo.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.repo.FindAll(ctx, filter)
}

// GetProductByID busca um produto pelo identificador estável.
func (s *Service) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	return s.repo.FindByID(ctx, id)
}

// CreateProduct valida e grava um novo produto no catálogo (back-office).
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.IsActive = true

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao criar produto.", err)
		return domain.Product{}, err
	}

	s.logger.Info("Produto criado no catálogo.", map[string]interface{}{"product_id": created.ID, "name": created.Name})
	return created, nil
}

// UpdateProduct valida e substitui um produto existente (back-office).
// Uma edição administrativa é a ÚNICA operação que pode aumentar estoque;
// por isso a validação dos contadores acontece aqui, nunca na baixa.
func (s *Service) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if product.ID == "" {
		return domain.Product{}, apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Falha ao atualizar produto.", err)
		return domain.Product{}, err
	}

	s.logger.Info("Produto atualizado no catálogo.", map[string]interface{}{"product_id": product.ID})
	return product, nil
}

// DeleteProduct remove um produto do catálogo (back-office).
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Produto removido do catálogo.", map[string]interface{}{"product_id": id})
	return nil
}

// validateProduct aplica as regras de negócio de escrita do catálogo.
// Contadores negativos nunca entram no armazenamento: nil é o único jeito
// de dizer "sem controle".
func validateProduct(product domain.Product) error {
	if product.Name == "" {
		return apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if product.Price <= 0 {
		return apperror.NewValidationError("O preço do produto deve ser positivo.")
	}
	if product.Stock != nil && *product.Stock < 0 {
		return apperror.NewValidationError("O estoque simples não pode ser negativo (use null para estoque sem controle).")
	}

	seen := map[string]bool{}
	for i, variant := range product.Variants {
		if variant.Name == "" {
			return apperror.NewValidationError(fmt.Sprintf("Variante %d requer nome.", i+1))
		}
		if seen[variant.Name] {
			return apperror.NewValidationError(fmt.Sprintf("Variante '%s' duplicada no produto.", variant.Name))
		}
		seen[variant.Name] = true

		for size, count := range variant.Stock {
			if count != nil && *count < 0 {
				return apperror.NewValidationError(fmt.Sprintf(
					"Estoque negativo na variante '%s', talla '%s' (use null para talla sem controle).", variant.Name, size))
			}
			if size != domain.DefaultSizeKey && len(product.Sizes) > 0 && !containsSize(product.Sizes, size) {
				return apperror.NewValidationError(fmt.Sprintf(
					"Talla '%s' da variante '%s' não existe na lista de tallas do produto.", size, variant.Name))
			}
		}
	}
	return nil
}

func containsSize(sizes []string, size string) bool {
	for _, s := range sizes {
		if s == size {
			return true
		}
	}
	return false
}
