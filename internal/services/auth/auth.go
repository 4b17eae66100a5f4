package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"advent_calendar/internal/domain/models"
	"advent_calendar/internal/errs"
	"advent_calendar/internal/lib/jwt"
	"advent_calendar/internal/lib/logger/sl"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", errs.ErrUnauthorized)

// Auth единственный администратор, учётные данные берутся из конфига.
type Auth struct {
	log          *slog.Logger
	login        string
	passwordHash []byte
	secret       []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

func New(log *slog.Logger, login, passwordHash, secret string, tokenTTL time.Duration) *Auth {
	return &Auth{
		log:          log,
		login:        login,
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		now:          time.Now,
	}
}

func (a *Auth) Login(ctx context.Context, login, password string) (models.TokenPair, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", login),
	)

	log.Info("attempting to login admin")

	if len(a.passwordHash) == 0 {
		log.Error("admin password hash is not configured")

		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if subtle.ConstantTimeCompare([]byte(login), []byte(a.login)) != 1 {
		// всё равно считаем bcrypt, чтобы время ответа не выдавало логин
		_ = bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
		log.Warn("unknown login")

		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))

		return models.TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := jwt.NewToken(a.login, a.secret, a.tokenTTL, a.now())
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))

		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin logged in successfully")

	return token, nil
}

// Verify проверяет токен администратора.
func (a *Auth) Verify(token string) (*models.TokenMeta, error) {
	meta, err := jwt.ParseToken(token, a.secret)
	if err != nil {
		return nil, fmt.Errorf("auth.Verify: %w", errors.Join(err, errs.ErrUnauthorized))
	}
	if meta.Subject != a.login {
		return nil, fmt.Errorf("auth.Verify: %w", errs.ErrUnauthorized)
	}
	return meta, nil
}

// HashPassword хэш для admin_password_hash в конфиге.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth.HashPassword: %w", err)
	}
	return string(hash), nil
}
