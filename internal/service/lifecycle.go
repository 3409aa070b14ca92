package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nurpe/carmate-contracts/internal/model"
	"github.com/nurpe/carmate-contracts/internal/repository"
)

// DeriveCarStatus maps a contract status to the availability of its car.
func DeriveCarStatus(status model.ContractStatus) model.CarStatus {
	switch status {
	case model.ContractStatusContractSuccessful:
		return model.CarStatusContractCompleted
	case model.ContractStatusContractFailed:
		return model.CarStatusPossession
	default:
		return model.CarStatusContractProceeding
	}
}

// ValidateTransition enforces the two hard rules of the contract lifecycle.
// Moves between in-progress statuses are free in both directions. carStatus
// is the current status of the car the contract will reference afterwards.
func ValidateTransition(from, to model.ContractStatus, carStatus model.CarStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if from != model.ContractStatusContractFailed || from == to {
		return nil
	}
	if to == model.ContractStatusContractSuccessful {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to.InProgress() && carStatus != model.CarStatusPossession {
		return fmt.Errorf("%w: car is %s", ErrCarUnavailable, carStatus)
	}
	return nil
}

// resolutionDate keeps the invariant that only terminal contracts carry a
// resolution date. An explicit value wins for terminal statuses; otherwise the
// existing date is kept when the status did not change, or set to now.
func resolutionDate(prev model.ContractStatus, current *time.Time, next model.ContractStatus, explicit *time.Time, now time.Time) *time.Time {
	if !next.Terminal() {
		return nil
	}
	if explicit != nil {
		t := *explicit
		return &t
	}
	if prev == next && current != nil {
		return current
	}
	return &now
}

// carSync is the only writer of Car.Status. Every method must run on a Store
// bound to the contract transaction. A failed contract no longer claims its
// car, so it never writes that car's status.
type carSync struct {
	tx *repository.Store
}

func (s carSync) onCreate(ctx context.Context, carID uint) error {
	return s.tx.Cars.UpdateStatus(ctx, carID, model.CarStatusContractProceeding)
}

func (s carSync) onUpdate(ctx context.Context, before, after model.Contract) error {
	claimedBefore := before.Status != model.ContractStatusContractFailed
	claimsAfter := after.Status != model.ContractStatusContractFailed

	if claimedBefore && (before.CarID != after.CarID || !claimsAfter) {
		if err := s.release(ctx, before.CarID, before.ID); err != nil {
			return err
		}
	}
	if claimsAfter {
		return s.tx.Cars.UpdateStatus(ctx, after.CarID, DeriveCarStatus(after.Status))
	}
	return nil
}

func (s carSync) onDelete(ctx context.Context, contract model.Contract) error {
	if contract.Status == model.ContractStatusContractFailed {
		return nil
	}
	return s.release(ctx, contract.CarID, contract.ID)
}

// release returns the car to possession unless another contract still
// claims it.
func (s carSync) release(ctx context.Context, carID, contractID uint) error {
	others, err := s.tx.Contracts.CountActiveByCar(ctx, carID, contractID)
	if err != nil {
		return err
	}
	if others > 0 {
		return nil
	}
	return s.tx.Cars.UpdateStatus(ctx, carID, model.CarStatusPossession)
}
