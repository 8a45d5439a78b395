package dto

import (
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type SignUpDTO struct {
	Email     string `json:"email"`
	Password  string `json:"password"` //密碼明文
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (d SignUpDTO) ToInput() service.SignUpInput {
	return service.SignUpInput{
		Email:     d.Email,
		Password:  d.Password,
		FirstName: d.FirstName,
		LastName:  d.LastName,
	}
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenInfo 表示令牌資訊
type TokenInfo struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UserDTO struct {
	ID          int        `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// LoginResponse 登入與換發 token 共用
type LoginResponse struct {
	AccessToken  TokenInfo `json:"access_token"`
	RefreshToken TokenInfo `json:"refresh_token"`
	User         UserDTO   `json:"user"`
}

func NewUserDTO(user *model.User) UserDTO {
	return UserDTO{
		ID:          user.UserID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        string(user.Role),
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

func NewLoginResponse(result *service.AuthResult) LoginResponse {
	return LoginResponse{
		AccessToken: TokenInfo{
			Value:     result.AccessToken,
			ExpiresAt: result.AccessTokenExpiresAt,
		},
		RefreshToken: TokenInfo{
			Value:     result.RefreshToken,
			ExpiresAt: result.RefreshTokenExpiresAt,
		},
		User: NewUserDTO(result.User),
	}
}
