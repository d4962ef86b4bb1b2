package domain

import "time"

// AdminUser representa a conta administrativa da loja.
// O storefront público não tem contas de cliente; autenticação existe
// apenas para o back-office.
type AdminUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
)

// AdminCredentials é o payload de entrada para o login do back-office.
type AdminCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
