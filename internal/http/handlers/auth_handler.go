package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-auth-service/internal/domain"
	"github.com/tbourn/go-auth-service/internal/http/response"
	"github.com/tbourn/go-auth-service/internal/validation"
)

// RegisterUseCase creates an account and, depending on the identity
// backend, opens a session for it.
type RegisterUseCase interface {
	Execute(ctx context.Context, dto domain.RegisterDto) (*domain.AuthUser, error)
}

// LoginUseCase exchanges credentials for a session.
type LoginUseCase interface {
	Execute(ctx context.Context, dto domain.LoginDto) (*domain.AuthUser, error)
}

// Handlers groups the auth endpoints and the service probes.
type Handlers struct {
	register RegisterUseCase
	login    LoginUseCase
	version  string
}

// New constructs Handlers bound to the given use-cases. version is echoed
// in every envelope's meta.
func New(register RegisterUseCase, login LoginUseCase, version string) *Handlers {
	if version == "" {
		version = response.DefaultVersion
	}
	return &Handlers{register: register, login: login, version: version}
}

// RegisterRequest documents the register payload. The handler validates
// the raw JSON against the register schema instead of binding this type.
type RegisterRequest struct {
	Name     string `json:"name"     example:"Ana"`
	Lastname string `json:"lastname" example:"García"`
	Email    string `json:"email"    example:"ana@example.com"`
	Password string `json:"password" example:"Password123!"`
}

// LoginRequest documents the login payload.
type LoginRequest struct {
	Email    string `json:"email"    example:"ana@example.com"`
	Password string `json:"password" example:"Password123!"`
}

// StatusInfo is the payload of the API root probe.
type StatusInfo struct {
	Message string `json:"message" example:"API is running"`
	Version string `json:"version" example:"1.0.0"`
}

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	Status    string `json:"status"    example:"OK"`
	Timestamp string `json:"timestamp" example:"2024-01-01T00:00:00.000Z"`
}

// Register godoc
// @ID          registerUser
// @Summary     Register a new user
// @Description Validates the payload and creates the account. Returns the user and a session when the identity provider opens one, otherwise only the user (email confirmation pending).
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Register payload"
//
// @Success     201  {object}  response.SuccessEnvelope[domain.AuthUser]
// @Failure     400  {object}  response.ErrorEnvelope  "Malformed body or rejected by the provider"
// @Failure     422  {object}  response.ErrorEnvelope  "Validation failed"
// @Failure     429  {object}  response.ErrorEnvelope  "Too many requests"
// @Failure     500  {object}  response.ErrorEnvelope  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	dto, err := validation.ValidateRegister(raw)
	if err != nil {
		fail(c, err)
		return
	}

	au, err := h.register.Execute(c.Request.Context(), dto)
	if err != nil {
		fail(c, err)
		return
	}

	if !au.HasSession() {
		ok(c, http.StatusCreated, au.User, h.version)
		return
	}
	ok(c, http.StatusCreated, au, h.version)
}

// Login godoc
// @ID          loginUser
// @Summary     Log in
// @Description Exchanges email and password for an access and refresh token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  response.SuccessEnvelope[domain.AuthUser]
// @Failure     400  {object}  response.ErrorEnvelope  "Malformed body"
// @Failure     401  {object}  response.ErrorEnvelope  "Invalid credentials"
// @Failure     422  {object}  response.ErrorEnvelope  "Validation failed"
// @Failure     429  {object}  response.ErrorEnvelope  "Too many requests"
// @Failure     500  {object}  response.ErrorEnvelope  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	dto, err := validation.ValidateLogin(raw)
	if err != nil {
		fail(c, err)
		return
	}

	au, err := h.login.Execute(c.Request.Context(), dto)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, au, h.version)
}

// Root godoc
// @ID          apiRoot
// @Summary     API status
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  response.SuccessEnvelope[handlers.StatusInfo]
// @Router      / [get]
func (h *Handlers) Root(c *gin.Context) {
	ok(c, http.StatusOK, StatusInfo{Message: MsgAPIRunning, Version: h.version}, h.version)
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    HealthStatusOK,
		Timestamp: response.Timestamp(time.Now()),
	})
}

// NotFound reports unmatched routes through the Errors stage.
func (h *Handlers) NotFound(c *gin.Context) {
	fail(c, domain.NewNotFoundError(MsgRouteNotFound))
}
