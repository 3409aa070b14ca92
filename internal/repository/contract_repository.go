package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/carmate-contracts/internal/model"
)

type ContractSearchField string

const (
	ContractSearchByCustomerName ContractSearchField = "customerName"
	ContractSearchByUserName     ContractSearchField = "userName"
)

type ContractFilter struct {
	CompanyID uint
	SearchBy  ContractSearchField
	Keyword   string
}

// DocumentContractFilter selects successful contracts that carry documents.
// Keyword matches the car model name or the customer name.
type DocumentContractFilter struct {
	CompanyID uint
	Keyword   string
	Page      int
	PageSize  int
}

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create inserts the contract together with its meetings and their alarms.
func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).
		Omit("Car", "Customer", "User", "Documents").
		Create(contract).Error
}

// FindForUpdate locks the contract row until the surrounding transaction ends.
func (r *ContractRepository) FindForUpdate(ctx context.Context, id uint) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindDetail loads the contract with every relation needed to render it.
func (r *ContractRepository) FindDetail(ctx context.Context, id uint) (*model.Contract, error) {
	var contract model.Contract
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("contracts.id = ?", id).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) Update(ctx context.Context, contract *model.Contract) error {
	contract.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Exec(`
		UPDATE contracts
		SET
			status = ?,
			contract_price = ?,
			resolution_date = ?,
			car_id = ?,
			customer_id = ?,
			user_id = ?,
			updated_at = ?
		WHERE id = ?
	`,
		contract.Status,
		contract.ContractPrice,
		contract.ResolutionDate,
		contract.CarID,
		contract.CustomerID,
		contract.UserID,
		contract.UpdatedAt,
		contract.ID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceMeetings drops every meeting (alarms first) and creates the given set.
func (r *ContractRepository) ReplaceMeetings(ctx context.Context, contractID uint, meetings []model.Meeting) error {
	db := r.db.WithContext(ctx)
	if err := r.deleteMeetings(db, contractID); err != nil {
		return err
	}
	if len(meetings) == 0 {
		return nil
	}
	for i := range meetings {
		meetings[i].ID = 0
		meetings[i].ContractID = contractID
	}
	return db.Create(&meetings).Error
}

// Delete removes the contract and the meetings it owns.
func (r *ContractRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := r.deleteMeetings(db, id); err != nil {
		return err
	}
	res := db.Exec(`DELETE FROM contracts WHERE id = ?`, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ContractRepository) List(ctx context.Context, filter ContractFilter) ([]model.Contract, error) {
	query := r.withRelations(r.db.WithContext(ctx)).
		Where("contracts.company_id = ?", filter.CompanyID)

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		switch filter.SearchBy {
		case ContractSearchByCustomerName:
			query = query.Where("contracts.customer_id IN (?)",
				r.db.Model(&model.Customer{}).Select("id").Where("name LIKE ?", like))
		case ContractSearchByUserName:
			query = query.Where("contracts.user_id IN (?)",
				r.db.Model(&model.User{}).Select("id").Where("name LIKE ?", like))
		}
	}

	var contracts []model.Contract
	if err := query.Order("contracts.id ASC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListDrafts returns the company's successful contracts that have no
// document attached yet, newest first.
func (r *ContractRepository) ListDrafts(ctx context.Context, companyID uint) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Preload("Car.Model").
		Preload("Customer").
		Where("contracts.company_id = ? AND contracts.status = ?", companyID, model.ContractStatusContractSuccessful).
		Where("NOT EXISTS (SELECT 1 FROM contract_documents d WHERE d.contract_id = contracts.id)").
		Order("contracts.id DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListWithDocuments pages through successful contracts that carry at least one
// document and reports the total number of matches.
func (r *ContractRepository) ListWithDocuments(ctx context.Context, filter DocumentContractFilter) ([]model.Contract, int64, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).
			Model(&model.Contract{}).
			Where("contracts.company_id = ? AND contracts.status = ?", filter.CompanyID, model.ContractStatusContractSuccessful).
			Where("EXISTS (SELECT 1 FROM contract_documents d WHERE d.contract_id = contracts.id)")
		if filter.Keyword != "" {
			like := "%" + filter.Keyword + "%"
			query = query.Where(`(
				contracts.car_id IN (SELECT cars.id FROM cars JOIN car_models ON car_models.id = cars.model_id WHERE car_models.model LIKE ?)
				OR contracts.customer_id IN (SELECT id FROM customers WHERE name LIKE ?)
			)`, like, like)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contracts []model.Contract
	err := r.withRelations(base()).
		Order("contracts.id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&contracts).Error
	if err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}

// CountActiveByCar counts contracts other than excludeID that still claim the car.
func (r *ContractRepository) CountActiveByCar(ctx context.Context, carID, excludeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM contracts
		WHERE car_id = ? AND id <> ? AND status <> ?
	`, carID, excludeID, model.ContractStatusContractFailed).Scan(&count).Error
	return count, err
}

func (r *ContractRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Car.Model").
		Preload("Customer").
		Preload("User").
		Preload("Meetings", func(db *gorm.DB) *gorm.DB { return db.Order("meetings.date ASC") }).
		Preload("Meetings.Notifications", func(db *gorm.DB) *gorm.DB { return db.Order("notifications.alarm_time ASC") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("contract_documents.id ASC") })
}

func (r *ContractRepository) deleteMeetings(db *gorm.DB, contractID uint) error {
	if err := db.Exec(`
		DELETE FROM notifications
		WHERE meeting_id IN (SELECT id FROM meetings WHERE contract_id = ?)
	`, contractID).Error; err != nil {
		return err
	}
	return db.Exec(`DELETE FROM meetings WHERE contract_id = ?`, contractID).Error
}
