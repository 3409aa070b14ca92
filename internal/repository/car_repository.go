package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/carmate-contracts/internal/model"
)

type CarRepository struct {
	db *gorm.DB
}

func NewCarRepository(db *gorm.DB) *CarRepository {
	return &CarRepository{db: db}
}

// ListAvailable returns the company's cars that a new contract may claim,
// newest first.
func (r *CarRepository) ListAvailable(ctx context.Context, companyID uint) ([]model.Car, error) {
	var cars []model.Car
	err := r.db.WithContext(ctx).
		Preload("Model").
		Where("company_id = ? AND status = ?", companyID, model.CarStatusPossession).
		Order("id DESC").
		Find(&cars).Error
	if err != nil {
		return nil, err
	}
	return cars, nil
}

// FindForUpdate locks the car row until the surrounding transaction ends.
func (r *CarRepository) FindForUpdate(ctx context.Context, id uint) (*model.Car, error) {
	var car model.Car
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&car).Error
	if err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *CarRepository) UpdateStatus(ctx context.Context, id uint, status model.CarStatus) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE cars
		SET status = ?, updated_at = ?
		WHERE id = ?
	`, status, time.Now(), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CarRepository) CarNumbersByCompany(ctx context.Context, companyID uint) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT car_number FROM cars WHERE company_id = ?
	`, companyID).Scan(&numbers).Error
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

// BulkCreate inserts the cars in one transaction. A car whose number the
// company already holds is skipped; the indexes of skipped cars are returned.
func (r *CarRepository) BulkCreate(ctx context.Context, cars []model.Car) ([]int, error) {
	return insertSkippingConflicts(ctx, r.db, cars)
}

type CarModelRepository struct {
	db *gorm.DB
}

func NewCarModelRepository(db *gorm.DB) *CarModelRepository {
	return &CarModelRepository{db: db}
}

func (r *CarModelRepository) ListAll(ctx context.Context) ([]model.CarModel, error) {
	var models []model.CarModel
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, manufacturer, model, type
		FROM car_models
		ORDER BY id
	`).Scan(&models).Error
	if err != nil {
		return nil, err
	}
	return models, nil
}
