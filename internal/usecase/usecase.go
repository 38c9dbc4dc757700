// Package usecase exposes the application operations to the delivery layer.
package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/repository"
	"github.com/Khangurai/zap-admin/internal/usecase/domain"
)

// InterfaceUsecase aggregates all usecase interfaces.
type InterfaceUsecase interface {
	UserUsecaseInterface
	CarUsecaseInterface
	RouteUsecaseInterface
	ProfileUsecaseInterface
	AuthUsecaseInterface
}

// New constructs a new usecase layer with its dependencies.
func New(
	log *zap.SugaredLogger,
	ctx context.Context,
	repo repository.Repository,
	deps domain.Deps,
	timeout time.Duration,
) InterfaceUsecase {
	return domain.New(log, ctx, repo, deps, timeout)
}
