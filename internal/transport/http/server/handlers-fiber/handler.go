// Package handlers_fiber wires HTTP delivery components.
package handlers_fiber

import (
	"context"

	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/optimization"
	"github.com/Khangurai/zap-admin/internal/planner"
	"github.com/Khangurai/zap-admin/internal/store"
	"github.com/Khangurai/zap-admin/internal/usecase"
)

// VehicleSource returns the latest known vehicle positions.
type VehicleSource interface {
	Vehicles(ctx context.Context) ([]store.VehicleState, error)
}

// Handler serves the admin API on top of the service layer.
type Handler struct {
	log      *zap.SugaredLogger
	uc       usecase.InterfaceUsecase
	plans    *planner.Service
	jobs     *optimization.Service
	vehicles VehicleSource
}

// NewHandler constructs an HTTP server with service dependencies.
func NewHandler(
	log *zap.SugaredLogger,
	usecase usecase.InterfaceUsecase,
	plans *planner.Service,
	jobs *optimization.Service,
	vehicles VehicleSource,
) *Handler {
	return &Handler{
		log:      log,
		uc:       usecase,
		plans:    plans,
		jobs:     jobs,
		vehicles: vehicles,
	}
}
