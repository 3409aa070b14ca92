package model

import "time"

// ContractDocument is uploaded standalone (ContractID == nil) and attached to
// a contract later by document reconciliation.
type ContractDocument struct {
	ID         uint   `gorm:"primaryKey"`
	FileName   string `gorm:"size:255;not null"`
	FileKey    string `gorm:"size:1024;not null"`
	MimeType   string `gorm:"size:128"`
	Size       int64
	ContractID *uint `gorm:"index"`
	CompanyID  uint  `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ContractDocument) TableName() string {
	return "contract_documents"
}

// DocumentRef identifies a document in a reconciliation target list.
type DocumentRef struct {
	ID       uint
	FileName string
}
