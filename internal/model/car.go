package model

import "time"

type CarStatus string

const (
	CarStatusPossession         CarStatus = "possession"
	CarStatusContractProceeding CarStatus = "contractProceeding"
	CarStatusContractCompleted  CarStatus = "contractCompleted"
)

// CarModel is seeded reference data: one row per manufacturer/model pair.
type CarModel struct {
	ID           uint   `gorm:"primaryKey"`
	Manufacturer string `gorm:"size:64;not null;uniqueIndex:uq_car_model"`
	Model        string `gorm:"size:64;not null;uniqueIndex:uq_car_model"`
	Type         string `gorm:"size:32"`
}

func (CarModel) TableName() string {
	return "car_models"
}

type Car struct {
	ID                uint      `gorm:"primaryKey"`
	CarNumber         string    `gorm:"size:32;not null;uniqueIndex:uq_car_company_number"`
	ModelID           uint      `gorm:"not null"`
	Model             *CarModel `gorm:"foreignKey:ModelID"`
	ManufacturingYear int
	Mileage           int
	Price             int64
	AccidentCount     int
	Explanation       string
	AccidentDetails   string
	Status            CarStatus `gorm:"size:32;not null;default:possession"`
	CompanyID         uint      `gorm:"not null;uniqueIndex:uq_car_company_number"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Car) TableName() string {
	return "cars"
}

// Describe returns the label used in emails and documents, e.g. "Sonata(12가3456)".
func (c Car) Describe() string {
	if c.Model == nil {
		return c.CarNumber
	}
	return c.Model.Model + "(" + c.CarNumber + ")"
}
