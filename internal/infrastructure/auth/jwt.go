package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/config"
)

// Roles carried in the roles claim
const (
	RoleAdmin   = "admin"
	RolePartner = "partner"
	// RoleService is held by internal callers: the order service and the PDF renderer
	RoleService = "service"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims are the bearer token claims. Tokens are issued by the platform's
// identity service; this service only validates them.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string   `json:"user_id"`
	PartnerID string   `json:"partner_id,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// UserUUID parses the user id
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// PartnerUUID parses the partner id. It returns uuid.Nil when the caller
// does not act for a partner.
func (c *Claims) PartnerUUID() (uuid.UUID, error) {
	if c.PartnerID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(c.PartnerID)
}

// HasRole reports whether the token carries role
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether the token carries at least one of roles
func (c *Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, c.HasRole)
}

// JWTService validates HS256 bearer tokens
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewJWTService creates a JWTService
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.AccessTokenExpiration,
	}
}

// TokenInput describes a token to sign
type TokenInput struct {
	UserID    uuid.UUID
	PartnerID uuid.UUID
	Roles     []string
}

// SignToken signs a token with the shared secret. Used by internal callers
// that hold the secret and by tests.
func (s *JWTService) SignToken(input TokenInput) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: input.UserID.String(),
		Roles:  input.Roles,
	}
	if input.PartnerID != uuid.Nil {
		claims.PartnerID = input.PartnerID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateAccessToken verifies signature, expiry and issuer and returns the claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.PartnerUUID(); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
