package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/bcrypt"
)

type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Claims are carried by every bearer token issued at login.
type Claims struct {
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users  domain.UserRepository
	audit  *AuditService
	tokens TokenConfig
	now    func() time.Time
}

func NewAuthService(users domain.UserRepository, audit *AuditService, tokens TokenConfig) (*AuthService, error) {
	if len(tokens.Secret) == 0 {
		return nil, errors.New("auth secret is required")
	}
	if tokens.TTL <= 0 {
		return nil, errors.New("token ttl must be greater than zero")
	}
	if strings.TrimSpace(tokens.Issuer) == "" {
		tokens.Issuer = "webbudget"
	}
	return &AuthService{users: users, audit: audit, tokens: tokens, now: time.Now}, nil
}

// Login checks the credential pair and issues a signed bearer token. Unknown
// users, wrong passwords and inactive accounts all fail the same way.
func (s *AuthService) Login(ctx context.Context, cred Credential) (LoginResult, error) {
	u, err := s.users.GetUserByEmail(ctx, cred.Login())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LoginResult{}, domain.ErrUnauthorized
		}
		return LoginResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(cred.Password)) != nil {
		return LoginResult{}, domain.ErrUnauthorized
	}
	if !u.Active {
		return LoginResult{}, domain.ErrUnauthorized
	}

	token, expiresAt, err := s.issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	s.audit.WriteAudit(ctx, &u.ID, "auth.login", "user", u.ExternalID.String(), "bearer token issued")
	return LoginResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) issue(u domain.User) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.tokens.TTL)
	claims := Claims{
		Authorities: u.AuthorityNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.tokens.Issuer,
			Subject:   u.ExternalID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ksuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokens.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Authenticate verifies a bearer token and reloads its user, so deactivated
// accounts and revoked grants take effect before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return s.tokens.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.tokens.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, domain.ErrUnauthorized
		}
		return domain.Identity{}, err
	}
	if !u.Active {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.NewIdentity(u), nil
}
