package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/Khangurai/zap-admin/internal/entities"
)

func (u *Usecase) ListCars(ctx context.Context) ([]entities.Car, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.ListCars(ctx)
}

func (u *Usecase) GetCar(ctx context.Context, id string) (*entities.Car, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.GetCar(ctx, id)
}

// CreateCar registers a car; a driver, if given, must exist.
func (u *Usecase) CreateCar(ctx context.Context, car entities.Car) (*entities.Car, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	car.CarNumber = strings.TrimSpace(car.CarNumber)
	if car.CarNumber == "" {
		return nil, fmt.Errorf("%w: car_number is required", entities.ErrInvalidArgument)
	}
	if car.DriverID != nil {
		if _, err := u.repo.GetUser(ctx, *car.DriverID); err != nil {
			return nil, err
		}
	}
	return u.repo.CreateCar(ctx, car)
}

func (u *Usecase) UpdateCar(ctx context.Context, id string, patch entities.CarPatch) (*entities.Car, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if patch.CarNumber != nil {
		n := strings.TrimSpace(*patch.CarNumber)
		if n == "" {
			return nil, fmt.Errorf("%w: car_number cannot be empty", entities.ErrInvalidArgument)
		}
		patch.CarNumber = &n
	}
	if patch.DriverID != nil && !patch.ClearDrv {
		if _, err := u.repo.GetUser(ctx, *patch.DriverID); err != nil {
			return nil, err
		}
	}
	return u.repo.UpdateCar(ctx, id, patch)
}

func (u *Usecase) DeleteCar(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.DeleteCar(ctx, id)
}
