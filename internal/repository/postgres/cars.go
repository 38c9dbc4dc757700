package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Khangurai/zap-admin/internal/entities"
)

const (
	carColumns = `id::text, car_number, driver_id::text, image_url, status, created_at`

	listCarsQuery  = `SELECT ` + carColumns + ` FROM cars ORDER BY created_at ASC`
	getCarQuery    = `SELECT ` + carColumns + ` FROM cars WHERE id = $1`
	createCarQuery = `INSERT INTO cars (car_number, driver_id, image_url, status)
VALUES ($1, $2::uuid, $3, $4)
RETURNING ` + carColumns
	updateCarQuery = `UPDATE cars SET
    car_number = COALESCE($2, car_number),
    driver_id  = CASE WHEN $3::boolean THEN NULL ELSE COALESCE($4::uuid, driver_id) END,
    image_url  = COALESCE($5, image_url),
    status     = COALESCE($6, status)
WHERE id = $1
RETURNING ` + carColumns
	deleteCarQuery = `DELETE FROM cars WHERE id = $1`
)

func scanCar(row pgx.Row) (*entities.Car, error) {
	var c entities.Car
	if err := row.Scan(&c.ID, &c.CarNumber, &c.DriverID, &c.ImageURL, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *Postgres) ListCars(ctx context.Context) ([]entities.Car, error) {
	rows, err := p.db.Query(ctx, listCarsQuery)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	defer rows.Close()

	cars := make([]entities.Car, 0)
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			p.log.Errorw("failed to scan car", "error", err)
			return nil, fmt.Errorf("scan cars: %w", err)
		}
		cars = append(cars, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cars: %w", err)
	}
	return cars, nil
}

func (p *Postgres) GetCar(ctx context.Context, id string) (*entities.Car, error) {
	c, err := scanCar(p.db.QueryRow(ctx, getCarQuery, id))
	if err != nil {
		return nil, mapErr(err, entities.ErrCarNotFound, "get car")
	}
	return c, nil
}

func (p *Postgres) CreateCar(ctx context.Context, car entities.Car) (*entities.Car, error) {
	c, err := scanCar(p.db.QueryRow(ctx, createCarQuery, car.CarNumber, car.DriverID, car.ImageURL, car.Status))
	if err != nil {
		p.log.Errorw("failed to create car", "error", err, "car_number", car.CarNumber)
		return nil, mapErr(err, entities.ErrCarNotFound, "create car")
	}
	p.log.Infow("car created", "car_id", c.ID)
	return c, nil
}

// UpdateCar applies the non-nil fields of patch. ClearDrv unassigns the
// driver and wins over DriverID.
func (p *Postgres) UpdateCar(ctx context.Context, id string, patch entities.CarPatch) (*entities.Car, error) {
	c, err := scanCar(p.db.QueryRow(ctx, updateCarQuery,
		id, patch.CarNumber, patch.ClearDrv, patch.DriverID, patch.ImageURL, patch.Status))
	if err != nil {
		p.log.Errorw("failed to update car", "error", err, "car_id", id)
		return nil, mapErr(err, entities.ErrCarNotFound, "update car")
	}
	p.log.Infow("car updated", "car_id", id)
	return c, nil
}

func (p *Postgres) DeleteCar(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, deleteCarQuery, id)
	if err != nil {
		return mapErr(err, entities.ErrCarNotFound, "delete car")
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrCarNotFound
	}
	p.log.Infow("car deleted", "car_id", id)
	return nil
}
