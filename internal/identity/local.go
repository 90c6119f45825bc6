package identity

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-auth-service/internal/domain"
	"github.com/tbourn/go-auth-service/internal/repo"
)

// Error codes reported by the local store.
const (
	CodeUserExists         = "user_already_exists"
	CodeInvalidCredentials = "invalid_credentials"

	MsgUserExists = "User already registered"

	defaultIssuer    = "go-auth-service"
	defaultAccessTTL = time.Hour
)

// ErrMissingSecret is returned when the store has no signing key.
var ErrMissingSecret = errors.New("identity: local store requires a JWT secret")

// Claims are the access-token claims issued by LocalStore.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LocalStore is a self-contained identity backend: users live in SQLite,
// passwords are bcrypt hashes and sessions are HS256 access tokens paired
// with opaque refresh tokens. Refresh tokens are not persisted.
type LocalStore struct {
	DB        *gorm.DB
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
	Cost      int

	now func() time.Time
}

// NewLocalStore returns a store over db. ttl <= 0 defaults to one hour.
func NewLocalStore(db *gorm.DB, secret string, ttl time.Duration) (*LocalStore, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &LocalStore{
		DB:        db,
		Secret:    []byte(secret),
		AccessTTL: ttl,
		Issuer:    defaultIssuer,
		Cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}, nil
}

// dummyHash is compared against when the email is unknown so both
// rejection paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword(prehash("not-a-real-password"), bcrypt.MinCost)

// prehash digests the password to a fixed 44-byte key. bcrypt rejects
// inputs longer than 72 bytes, and passwords may be up to 128 characters.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// Register creates the account and opens a session for it.
func (s *LocalStore) Register(ctx context.Context, dto domain.RegisterDto) (*domain.AuthUser, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(dto.Password()), s.cost())
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	rec := &domain.UserRecord{
		ID:           uuid.NewString(),
		Email:        dto.Email(),
		Name:         dto.Name(),
		Lastname:     dto.Lastname(),
		PasswordHash: string(hash),
	}
	if err := repo.CreateUser(ctx, s.DB, rec); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, domain.NewBadRequestError(MsgUserExists, CodeUserExists)
		}
		return nil, fmt.Errorf("identity: create user: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("user_id", rec.ID).Msg("user registered")
	return s.session(rec)
}

// Login verifies the password and opens a session.
func (s *LocalStore) Login(ctx context.Context, dto domain.LoginDto) (*domain.AuthUser, error) {
	rec, err := repo.FindUserByEmail(ctx, s.DB, dto.Email())
	switch {
	case errors.Is(err, repo.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(dummyHash, prehash(dto.Password()))
		return nil, invalidCredentials()
	case err != nil:
		return nil, fmt.Errorf("identity: find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), prehash(dto.Password())); err != nil {
		return nil, invalidCredentials()
	}
	return s.session(rec)
}

// ParseAccessToken validates a token issued by this store.
func (s *LocalStore) ParseAccessToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer()),
		jwt.WithTimeFunc(s.clock()),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *LocalStore) session(rec *domain.UserRecord) (*domain.AuthUser, error) {
	u, err := rec.ToUser()
	if err != nil {
		return nil, err
	}

	now := s.clock()()
	claims := Claims{
		Email: rec.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rec.ID,
			Issuer:    s.issuer(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.AccessTTL)),
			ID:        uuid.NewString(),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return nil, fmt.Errorf("identity: sign access token: %w", err)
	}

	return domain.NewAuthUser(*u, access, uuid.NewString())
}

func (s *LocalStore) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

func (s *LocalStore) issuer() string {
	if s.Issuer == "" {
		return defaultIssuer
	}
	return s.Issuer
}

func (s *LocalStore) clock() func() time.Time {
	if s.now == nil {
		return time.Now
	}
	return s.now
}

func invalidCredentials() error {
	return domain.NewUnauthorizedError(domain.MsgInvalidCredentials, CodeInvalidCredentials)
}
