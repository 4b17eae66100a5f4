package jwt

import (
	"errors"
	"fmt"
	"time"

	"advent_calendar/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "advent-calendar"

var ErrInvalidToken = errors.New("invalid token")

// NewToken выпускает HS256-токен администратора.
func NewToken(subject string, secret []byte, duration time.Duration, now time.Time) (models.TokenPair, error) {
	expiresAt := now.Add(duration)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{AccessToken: tokenString, ExpiresAt: expiresAt.Unix()}, nil
}

// ParseToken проверяет подпись и срок действия.
func ParseToken(tokenString string, secret []byte) (*models.TokenMeta, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	meta := &models.TokenMeta{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		meta.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		meta.ExpiresAt = claims.ExpiresAt.Unix()
	}

	return meta, nil
}
