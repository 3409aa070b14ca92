package model

import "time"

type Company struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:64;not null"`
	CompanyCode string `gorm:"size:32;uniqueIndex"`
	CreatedAt   time.Time
}

func (Company) TableName() string {
	return "companies"
}

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:64;not null"`
	Email     string `gorm:"size:128;uniqueIndex"`
	IsAdmin   bool
	CompanyID uint `gorm:"not null"`
	CreatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

// Actor is the authenticated requester. It is passed explicitly into every
// service call and never read from request-scoped globals.
type Actor struct {
	ID        uint
	CompanyID uint
	IsAdmin   bool
}
