package model

import "time"

type Customer struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:64;not null"`
	Gender      string `gorm:"size:16"`
	PhoneNumber string `gorm:"size:32;not null;uniqueIndex:uq_customer_company_phone"`
	AgeGroup    *string
	Region      *string
	Email       *string
	Memo        *string
	CompanyID   uint `gorm:"not null;uniqueIndex:uq_customer_company_phone"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Customer) TableName() string {
	return "customers"
}
