package userservice

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"legado/internal/domain"
	apperror "legado/internal/errors"
	"legado/internal/pkg/token"
)

// UserRepository define o contrato que o serviço espera da persistência
// das contas administrativas.
type UserRepository interface {
	Save(ctx context.Context, user domain.AdminUser) (domain.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (domain.AdminUser, error)
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID string, userRole string) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// UserService autentica o back-office. A loja pública não tem contas de
// cliente; tudo aqui é administrativo.
type UserService struct {
	UserRepo UserRepository
	TokenSvc TokenService
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo UserRepository, tokenSvc TokenService) *UserService {
	return &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
	}
}

// Register cria uma nova conta administrativa com a senha em hash bcrypt.
func (s *UserService) Register(ctx context.Context, credentials domain.AdminCredentials) (domain.AdminUser, error) {
	if credentials.Email == "" || credentials.Password == "" {
		return domain.AdminUser{}, apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credentials.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.AdminUser{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	newUser := domain.AdminUser{
		Email:        credentials.Email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleAdmin,
	}

	user, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		// Violação de unicidade do e-mail chega como erro de DB; traduzir
		// para Conflito de Negócio (409).
		var dbErr *apperror.InternalError
		if errors.As(err, &dbErr) {
			return domain.AdminUser{}, apperror.NewConflictError(
				fmt.Sprintf("O email '%s' já está em uso.", credentials.Email),
			)
		}
		return domain.AdminUser{}, err
	}

	return user, nil
}

// Login autentica um administrador, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		// NotFound vira Unauthorized para não dar dicas a invasores.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	return tokenString, nil
}
