package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/carmate-contracts/internal/model"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Find(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) PhonesByCompany(ctx context.Context, companyID uint) ([]string, error) {
	var phones []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT phone_number FROM customers WHERE company_id = ?
	`, companyID).Scan(&phones).Error
	if err != nil {
		return nil, err
	}
	return phones, nil
}

// BulkCreate inserts the customers in one transaction, skipping phone numbers
// the company already holds. The indexes of skipped customers are returned.
func (r *CustomerRepository) BulkCreate(ctx context.Context, customers []model.Customer) ([]int, error) {
	return insertSkippingConflicts(ctx, r.db, customers)
}

func (r *CustomerRepository) ListByCompany(ctx context.Context, companyID uint) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id DESC").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Find(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ListByCompany(ctx context.Context, companyID uint) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
