// Package domain contains application usecases for the fleet admin.
package domain

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/baas"
	"github.com/Khangurai/zap-admin/internal/repository"
)

// Auth is the BaaS auth API.
type Auth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*baas.Session, error)
	GetUser(ctx context.Context, token string) (*baas.AuthUser, error)
	SignOut(ctx context.Context, token string) error
	UpdatePassword(ctx context.Context, token, password string) error
}

// Storage is the BaaS object storage API.
type Storage interface {
	Upload(ctx context.Context, bucket, path, contentType string, body io.Reader, upsert bool) error
	Remove(ctx context.Context, bucket string, paths []string) error
	PublicURL(bucket, path string) string
	ObjectPath(bucket, publicURL string) (string, bool)
}

// StaticMapper renders a saved route as an image URL.
type StaticMapper interface {
	StaticImageURL(fc []byte, width, height int) (string, error)
}

// Cache stores short-lived JSON values such as validated sessions.
type Cache interface {
	SaveJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	LoadJSON(ctx context.Context, key string, v any) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Deps are the external collaborators beside the row store.
type Deps struct {
	Auth         Auth
	Storage      Storage
	Maps         StaticMapper
	Cache        Cache
	AvatarBucket string
	SessionTTL   time.Duration
}

// Usecase struct implements all usecase interfaces.
type Usecase struct {
	ctx     context.Context
	log     *zap.SugaredLogger
	repo    repository.Repository
	deps    Deps
	timeout time.Duration
	now     func() time.Time
}

// New constructs a new usecase layer with its dependencies.
func New(
	log *zap.SugaredLogger,
	ctx context.Context,
	repo repository.Repository,
	deps Deps,
	timeout time.Duration,
) *Usecase {
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = time.Minute
	}
	if deps.AvatarBucket == "" {
		deps.AvatarBucket = "avatars"
	}
	return &Usecase{
		ctx:     ctx,
		log:     log,
		repo:    repo,
		deps:    deps,
		timeout: timeout,
		now:     time.Now,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
