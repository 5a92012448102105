package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"notemate-backend/internal/apperr"
	"notemate-backend/internal/model"
	"notemate-backend/internal/repository"
	"notemate-backend/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = apperr.Unauthorized("invalid login or password")

type sessionClaims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// --- User Service ---

func (s *Service) Register(ctx context.Context, login, password string) (model.User, error) {
	if err := utils.ValidateLogin(login); err != nil {
		return model.User{}, apperr.BadRequest(err.Error())
	}
	if err := utils.ValidatePassword(password); err != nil {
		return model.User{}, apperr.BadRequest(err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		ID:           uuid.New(),
		Login:        login,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, apperr.Conflict("user with this login already exists")
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate проверяет пароль и выдаёт подписанный JWT
func (s *Service) Authenticate(ctx context.Context, login, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, errInvalidCredentials
		}
		return "", time.Time{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, errInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Login: user.Login,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expires, nil
}

func (s *Service) ValidateToken(ctx context.Context, tokenString string) (model.Principal, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return model.Principal{}, apperr.Wrap(err, http.StatusUnauthorized, "invalid or expired token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, apperr.Wrap(err, http.StatusUnauthorized, "invalid token claims")
	}

	blacklisted, err := s.cache.IsTokenBlacklisted(ctx, utils.HashToken(tokenString))
	if err != nil {
		// Кэш недоступен: токен не принимаем
		return model.Principal{}, fmt.Errorf("error checking token status: %w", err)
	}
	if blacklisted {
		return model.Principal{}, apperr.Unauthorized("token has been logged out")
	}

	return model.Principal{
		UserID:    userID,
		Login:     claims.Login,
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout кладёт хэш токена в черный список до конца его срока жизни
func (s *Service) Logout(ctx context.Context, principal model.Principal) error {
	ttl := principal.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.cache.BlacklistToken(ctx, utils.HashToken(principal.Token), ttl); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (s *Service) CurrentUser(ctx context.Context, principal model.Principal) (model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, apperr.Wrap(err, http.StatusUnauthorized, "user no longer exists")
		}
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
