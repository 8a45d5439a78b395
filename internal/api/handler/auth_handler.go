package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type AuthHandler struct {
	userService service.IUserService
}

func NewAuthHandler(userService service.IUserService) *AuthHandler {
	if userService == nil {
		panic("userService cannot be nil")
	}
	return &AuthHandler{userService: userService}
}

// SignUp POST /auth/signup
// @Summary sign up
// @Tags auth
// @Accept json
// @Produce json
// @Param user body dto.SignUpDTO true "sign up info"
// @Success 201 {object} response.Response{data=dto.UserDTO} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 409 {object} response.ResponseError "ALREADY_EXISTS"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /auth/signup [post]
func (a *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	user, err := a.userService.SignUp(r.Context(), req.ToInput())
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, dto.NewUserDTO(user))
}

// Login POST /auth/login
// @Summary email and password login
// @Tags auth
// @Accept json
// @Produce json
// @Param credential body dto.LoginDTO true "email and password"
// @Success 200 {object} response.Response{data=dto.LoginResponse} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /auth/login [post]
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	result, err := a.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewLoginResponse(result))
}

// RefreshToken POST /auth/refresh-token
// @Summary renew token
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh_token body dto.RefreshTokenDTO true "refresh token"
// @Success 200 {object} response.Response{data=dto.LoginResponse} "success"
// @Failure 400 {object} response.ResponseError "INVALID_ARGUMENT"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /auth/refresh-token [post]
func (a *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenDTO
	if err := decodeJSON(r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	result, err := a.userService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewLoginResponse(result))
}

// Me GET /auth/me
// @Summary get current login user info
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} response.Response{data=dto.UserDTO} "success"
// @Failure 401 {object} response.ResponseError "UNAUTHENTICATED"
// @Failure 500 {object} response.ResponseError "INTERNAL"
// @Router /auth/me [get]
func (a *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	payload, err := requirePayload(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	user, err := a.userService.GetUser(r.Context(), payload.UserID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewUserDTO(user))
}
