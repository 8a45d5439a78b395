package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/errs"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var errInvalidCredentials = errs.New(errs.UnauthenticatedCode, "invalid email or password")

type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (in *SignUpInput) validate() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return invalidArgument("invalid email")
	}
	if len(in.Password) < minPasswordLength {
		return invalidArgument("password must be at least %d characters", minPasswordLength)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return invalidArgument("first name and last name are required")
	}
	return nil
}

type AuthResult struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *model.User
}

type TokenDurations struct {
	Access  time.Duration
	Refresh time.Duration
}

type IUserService interface {
	SignUp(ctx context.Context, input SignUpInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	GetUser(ctx context.Context, userID int) (*model.User, error)
	EnsureUser(ctx context.Context, input SignUpInput, role model.UserRole) (*model.User, error)
}

type UserService struct {
	userRepo   db.IUserRepository
	tokenMaker token.Maker
	durations  TokenDurations
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewUserService(userRepo db.IUserRepository, tokenMaker token.Maker, durations TokenDurations, logger *zerolog.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		tokenMaker: tokenMaker,
		durations:  durations,
		logger:     nopIfNil(logger),
		now:        time.Now,
	}
}

var _ IUserService = (*UserService)(nil)

// SignUp 新用戶一律是 CUSTOMER
func (s *UserService) SignUp(ctx context.Context, input SignUpInput) (*model.User, error) {
	return s.createUser(ctx, input, model.UserRoleCustomer)
}

func (s *UserService) createUser(ctx context.Context, input SignUpInput, role model.UserRole) (*model.User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, invalidArgument("invalid role %s", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.CreateUser(ctx, &model.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		IsActive:     true,
	})
	if errors.Is(err, db.ErrUserEmailExists) {
		return nil, errs.Wrap(errs.AlreadyExistsCode, err, "email already registered")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureUser 已存在就直接回傳, seed 使用
func (s *UserService) EnsureUser(ctx context.Context, input SignUpInput, role model.UserRole) (*model.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, input.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, db.ErrUserNotFound) {
		return nil, err
	}
	return s.createUser(ctx, input, role)
}

// Login 帳號不存在與密碼錯誤回傳相同錯誤
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, errs.New(errs.UnauthenticatedCode, "account is disabled")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.UserID, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).Int("user_id", user.UserID).Msg("update last login failed")
	}
	return s.issueTokens(user)
}

func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	payload, err := s.tokenMaker.VerifyToken(refreshToken, token.RefreshToken)
	if err != nil {
		return nil, errs.Wrap(errs.UnauthenticatedCode, err, "invalid refresh token")
	}

	user, err := s.userRepo.GetUserByID(ctx, payload.UserID)
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, errs.New(errs.UnauthenticatedCode, "invalid refresh token")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errs.New(errs.UnauthenticatedCode, "account is disabled")
	}
	return s.issueTokens(user)
}

func (s *UserService) GetUser(ctx context.Context, userID int) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return user, nil
}

func (s *UserService) issueTokens(user *model.User) (*AuthResult, error) {
	accessToken, accessPayload, err := s.tokenMaker.CreateToken(user.UserID, string(user.Role), token.AccessToken, s.durations.Access)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshPayload, err := s.tokenMaker.CreateToken(user.UserID, string(user.Role), token.RefreshToken, s.durations.Refresh)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessPayload.ExpiresAt.Time,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshPayload.ExpiresAt.Time,
		User:                  user,
	}, nil
}
