package service

import (
	"context"
	"log/slog"
	"time"

	"notemate-backend/internal/cache"
	"notemate-backend/internal/repository"
)

// Cache кэш документов и черный список токенов (Redis или память процесса)
type Cache interface {
	GetDocumentList(ctx context.Context, key string) ([]byte, error)
	SetDocumentList(ctx context.Context, key string, data []byte) error
	GetDocumentItem(ctx context.Context, key string) ([]byte, error)
	SetDocumentItem(ctx context.Context, key string, data []byte) error
	InvalidateDocumentLists(ctx context.Context, prefix string) error
	InvalidateDocumentItem(ctx context.Context, key string) error
	IsTokenBlacklisted(ctx context.Context, tokenHash string) (bool, error)
	BlacklistToken(ctx context.Context, tokenHash string, exp time.Duration) error
	Ping(ctx context.Context) error
}

type Service struct {
	userRepo  repository.UserRepository
	docRepo   repository.DocumentRepository
	cache     Cache
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(userRepo repository.UserRepository, docRepo repository.DocumentRepository, c Cache, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.NewMemory(60, 300, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		userRepo:  userRepo,
		docRepo:   docRepo,
		cache:     c,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// CachePing проверка доступности кэша для /healthz
func (s *Service) CachePing(ctx context.Context) error {
	return s.cache.Ping(ctx)
}
