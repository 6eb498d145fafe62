package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"lingocache/internal/config"
	"lingocache/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid client id or secret")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService issues and validates service tokens for calling applications
type AuthService struct {
	clientID     string
	clientSecret string
	jwtSecret    []byte
	ttl          time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig) *AuthService {
	ttl := time.Duration(cfg.TokenTTLMin) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		jwtSecret:    []byte(cfg.JWTSecret),
		ttl:          ttl,
	}
}

// IssueToken validates client credentials and returns a signed token
func (s *AuthService) IssueToken(clientID, clientSecret string) (*model.TokenResponse, error) {
	if s.clientID == "" ||
		subtle.ConstantTimeCompare([]byte(clientID), []byte(s.clientID)) != 1 ||
		subtle.ConstantTimeCompare([]byte(clientSecret), []byte(s.clientSecret)) != 1 {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := &model.ClientClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.TokenResponse{
		Token:     tokenString,
		ClientID:  clientID,
		ExpiresIn: int(s.ttl.Seconds()),
	}, nil
}

// ValidateToken validates a client JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.ClientClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.ClientClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
