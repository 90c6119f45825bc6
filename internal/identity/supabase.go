// Package identity implements the identity backends behind the auth
// use-cases: a Supabase Auth (GoTrue) REST client and a self-contained
// SQLite store for local development and tests.
//
// Both backends return *domain.AppError values for rejections a client can
// act on (duplicate email, bad credentials, provider throttling). Transport
// failures and provider 5xx responses are returned as plain wrapped errors
// and end up as opaque 500 responses.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-auth-service/internal/domain"
	"github.com/tbourn/go-auth-service/internal/observability"
	"github.com/tbourn/go-auth-service/internal/sysutil"
)

const (
	signupPath = "/auth/v1/signup"
	tokenPath  = "/auth/v1/token?grant_type=password"

	// maxResponseBytes bounds how much of a provider response is read.
	maxResponseBytes = 1 << 20

	userAgent = "go-auth-service"
)

// Provider error codes that mean "wrong email or password".
var credentialCodes = map[string]struct{}{
	"invalid_grant":       {},
	"invalid_credentials": {},
}

// SupabaseClient talks to the Supabase Auth REST API with the project's
// anonymous key. It keeps no session state: every call is independent.
type SupabaseClient struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// NewSupabaseClient builds a client for the project at baseURL
// (e.g. https://xyz.supabase.co). timeout bounds each upstream call;
// zero means 10s.
func NewSupabaseClient(baseURL, anonKey string, timeout time.Duration) *SupabaseClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SupabaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type gotrueUser struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	EmailConfirmedAt *string `json:"email_confirmed_at"`
	UserMetadata     struct {
		DisplayName string `json:"display_name"`
	} `json:"user_metadata"`
}

type gotrueSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *gotrueUser `json:"user"`
}

// signupResponse covers both sign-up shapes: a session (auto-confirm on)
// or a bare user (email confirmation pending).
type signupResponse struct {
	gotrueSession
	gotrueUser
}

// gotrueError covers current ("msg"/"error_code") and legacy
// ("error"/"error_description") error bodies.
type gotrueError struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Err              string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e gotrueError) message() string {
	return sysutil.FirstNonEmpty(e.Msg, e.Message, e.ErrorDescription, e.Err)
}

func (e gotrueError) code() string {
	return sysutil.FirstNonEmpty(e.ErrorCode, e.Err)
}

type op string

const (
	opRegister op = "register"
	opLogin    op = "login"
)

// Register signs the user up, storing "name lastname" as display_name.
func (s *SupabaseClient) Register(ctx context.Context, dto domain.RegisterDto) (*domain.AuthUser, error) {
	body := map[string]any{
		"email":    dto.Email(),
		"password": dto.Password(),
		"data":     map[string]string{"display_name": dto.DisplayName()},
	}

	var out signupResponse
	if err := s.post(ctx, opRegister, signupPath, body, &out); err != nil {
		return nil, err
	}

	if out.User != nil {
		return toAuthUser(out.gotrueSession)
	}
	if out.ID == "" {
		// Nothing usable came back; the use-case reports it.
		return nil, nil
	}
	u, err := toUser(out.gotrueUser)
	if err != nil {
		return nil, err
	}
	return &domain.AuthUser{User: *u}, nil
}

// Login exchanges email and password for a session.
func (s *SupabaseClient) Login(ctx context.Context, dto domain.LoginDto) (*domain.AuthUser, error) {
	body := map[string]string{"email": dto.Email(), "password": dto.Password()}

	var out gotrueSession
	if err := s.post(ctx, opLogin, tokenPath, body, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("identity: login: session without user: %w", domain.ErrInvalidDataReceived)
	}
	return toAuthUser(out)
}

func (s *SupabaseClient) post(ctx context.Context, o op, path string, in, out any) (err error) {
	ctx, end := observability.StartSpan(ctx, "supabase.auth."+string(o),
		attribute.String("http.request.method", http.MethodPost),
		attribute.String("url.path", path),
	)
	defer func() { end(err) }()

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("identity: %s: encode: %w", o, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("identity: %s: build request: %w", o, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+s.anonKey)

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity: %s: %w", o, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("identity: %s: read response: %w", o, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("op", string(o)).
		Int("upstream_status", resp.StatusCode).
		Dur("upstream_latency", time.Since(start)).
		Msg("identity provider call")

	if resp.StatusCode >= http.StatusBadRequest {
		return mapError(o, resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identity: %s: decode response: %w", o, err)
	}
	return nil
}

// mapError converts a provider error response into an application error.
func mapError(o op, status int, raw []byte) error {
	var ge gotrueError
	_ = json.Unmarshal(raw, &ge)
	msg, code := ge.message(), ge.code()

	if status >= http.StatusInternalServerError {
		return fmt.Errorf("identity: %s: provider status %d: %s", o, status, sysutil.FirstNonEmpty(msg, http.StatusText(status)))
	}

	if status == http.StatusTooManyRequests {
		return domain.NewTooManyRequestsError(sysutil.FirstNonEmpty(msg, "Too many requests"), sysutil.FirstNonEmpty(code, "over_request_rate_limit"))
	}

	if o == opLogin {
		if _, ok := credentialCodes[code]; ok {
			return domain.NewUnauthorizedError(domain.MsgInvalidCredentials, "invalid_credentials")
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden || code == "email_not_confirmed" {
			return domain.NewUnauthorizedError(sysutil.FirstNonEmpty(msg, domain.MsgInvalidCredentials), code)
		}
	}

	return domain.NewBadRequestError(sysutil.FirstNonEmpty(msg, domain.MsgInvalidData), code)
}

func toUser(u gotrueUser) (*domain.User, error) {
	return domain.NewUser(u.ID, u.Email, u.UserMetadata.DisplayName, u.EmailConfirmedAt != nil && *u.EmailConfirmedAt != "", u.Phone)
}

func toAuthUser(s gotrueSession) (*domain.AuthUser, error) {
	u, err := toUser(*s.User)
	if err != nil {
		return nil, err
	}
	return domain.NewAuthUser(*u, s.AccessToken, s.RefreshToken)
}
