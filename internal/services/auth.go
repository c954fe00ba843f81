package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jumlahub/jumla-backend/internal/platform/apierr"
	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/requestdata"
)

// AuthService is the boundary to the identity provider: it verifies a bearer
// credential and resolves it to an identity, role, and optional region.
// Registration, login, and token issuance live in the identity service.
type AuthService interface {
	VerifyToken(ctx context.Context, tokenString string) (*requestdata.RequestData, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	leeway       time.Duration
}

func NewAuthService(log *logger.Logger, jwtSecretKey string) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
		leeway:       30 * time.Second,
	}
}

func (as *authService) VerifyToken(ctx context.Context, tokenString string) (*requestdata.RequestData, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, apierr.Authentication("missing bearer token")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithLeeway(as.leeway))
	if err != nil || !token.Valid {
		return nil, apierr.Authentication("invalid bearer token")
	}

	userID, err := uuid.Parse(claimString(claims, "user_id"))
	if err != nil {
		return nil, apierr.Authentication("token missing user_id claim")
	}

	return &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        claimString(claims, "role"),
		Region:      claimString(claims, "region"),
	}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	rd, err := as.VerifyToken(ctx, tokenString)
	if err != nil {
		return ctx, err
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
