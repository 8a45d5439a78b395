package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretKeySize = 32

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

type Payload struct {
	UserID    int       `json:"user_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

type Maker interface {
	CreateToken(userID int, role string, tokenType TokenType, duration time.Duration) (string, *Payload, error)
	VerifyToken(token string, tokenType TokenType) (*Payload, error)
}

type JWTMaker struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

func NewJWTMaker(secretKey, issuer string) (*JWTMaker, error) {
	if len(secretKey) < minSecretKeySize {
		return nil, fmt.Errorf("invalid key size: must be at least %d characters", minSecretKeySize)
	}
	return &JWTMaker{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		now:       time.Now,
	}, nil
}

var _ Maker = (*JWTMaker)(nil)

func (m *JWTMaker) CreateToken(userID int, role string, tokenType TokenType, duration time.Duration) (string, *Payload, error) {
	now := m.now()
	payload := &Payload{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(m.secretKey)
	if err != nil {
		return "", nil, err
	}
	return signed, payload, nil
}

// VerifyToken 檢查簽章與效期, 並確認 token 用途相符
func (m *JWTMaker) VerifyToken(tokenString string, tokenType TokenType) (*Payload, error) {
	payload := &Payload{}
	_, err := jwt.ParseWithClaims(tokenString, payload,
		func(t *jwt.Token) (any, error) {
			return m.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, ErrInvalidToken
	}
	if payload.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return payload, nil
}
