package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/carmate-contracts/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.ContractDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) Find(ctx context.Context, id uint) (*model.ContractDocument, error) {
	var doc model.ContractDocument
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByContract(ctx context.Context, contractID uint) ([]model.ContractDocument, error) {
	var docs []model.ContractDocument
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DocumentRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.ContractDocument, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var docs []model.ContractDocument
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DetachAll releases every document currently attached to the contract.
func (r *DocumentRepository) DetachAll(ctx context.Context, contractID uint) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE contract_documents
		SET contract_id = NULL, updated_at = ?
		WHERE contract_id = ?
	`, time.Now(), contractID).Error
}

func (r *DocumentRepository) Attach(ctx context.Context, contractID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE contract_documents
		SET contract_id = ?, updated_at = ?
		WHERE id IN ?
	`, contractID, time.Now(), ids).Error
}

func (r *DocumentRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		DELETE FROM contract_documents WHERE id IN ?
	`, ids).Error
}
