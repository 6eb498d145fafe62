package model

import "github.com/golang-jwt/jwt/v5"

// ClientClaims are JWT claims for a calling application
type ClientClaims struct {
	ClientID string `json:"clientId"`
	jwt.RegisteredClaims
}

// TokenRequest is the request body for client credential exchange
type TokenRequest struct {
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

// TokenResponse is returned after a successful exchange
type TokenResponse struct {
	Token     string `json:"token"`
	ClientID  string `json:"clientId"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}
