package model

import "time"

type ContractStatus string

const (
	ContractStatusCarInspection      ContractStatus = "carInspection"
	ContractStatusPriceNegotiation   ContractStatus = "priceNegotiation"
	ContractStatusContractDraft      ContractStatus = "contractDraft"
	ContractStatusContractSuccessful ContractStatus = "contractSuccessful"
	ContractStatusContractFailed     ContractStatus = "contractFailed"
)

// ContractStatuses lists every status in board order.
var ContractStatuses = []ContractStatus{
	ContractStatusCarInspection,
	ContractStatusPriceNegotiation,
	ContractStatusContractDraft,
	ContractStatusContractSuccessful,
	ContractStatusContractFailed,
}

func (s ContractStatus) Valid() bool {
	for _, status := range ContractStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s ContractStatus) InProgress() bool {
	switch s {
	case ContractStatusCarInspection, ContractStatusPriceNegotiation, ContractStatusContractDraft:
		return true
	default:
		return false
	}
}

func (s ContractStatus) Terminal() bool {
	return s == ContractStatusContractSuccessful || s == ContractStatusContractFailed
}

type Contract struct {
	ID             uint           `gorm:"primaryKey"`
	Status         ContractStatus `gorm:"size:32;not null;default:carInspection"`
	ContractPrice  int64
	ResolutionDate *time.Time
	CarID          uint `gorm:"not null;index"`
	CustomerID     uint `gorm:"not null;index"`
	UserID         uint `gorm:"not null;index"`
	CompanyID      uint `gorm:"not null;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Car       *Car               `gorm:"foreignKey:CarID"`
	Customer  *Customer          `gorm:"foreignKey:CustomerID"`
	User      *User              `gorm:"foreignKey:UserID"`
	Meetings  []Meeting          `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
	Documents []ContractDocument `gorm:"foreignKey:ContractID"`
}

func (Contract) TableName() string {
	return "contracts"
}

// Name is the display name shown on boards and documents.
func (c Contract) Name() string {
	model, customer := "", ""
	if c.Car != nil && c.Car.Model != nil {
		model = c.Car.Model.Model
	}
	if c.Customer != nil {
		customer = c.Customer.Name
	}
	return model + " - " + customer + " 고객님"
}

type Meeting struct {
	ID            uint           `gorm:"primaryKey"`
	Date          time.Time      `gorm:"not null"`
	ContractID    uint           `gorm:"not null;index"`
	Notifications []Notification `gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`
}

func (Meeting) TableName() string {
	return "meetings"
}

// Notification is a reminder alarm for a meeting.
type Notification struct {
	ID        uint      `gorm:"primaryKey"`
	AlarmTime time.Time `gorm:"not null"`
	MeetingID uint      `gorm:"not null;index"`
}

func (Notification) TableName() string {
	return "notifications"
}

type MeetingInput struct {
	Date   time.Time
	Alarms []time.Time
}
