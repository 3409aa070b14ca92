package service

import (
	"errors"
	"testing"
	"time"

	"github.com/nurpe/carmate-contracts/internal/model"
)

func TestDeriveCarStatus(t *testing.T) {
	tests := []struct {
		status model.ContractStatus
		want   model.CarStatus
	}{
		{model.ContractStatusCarInspection, model.CarStatusContractProceeding},
		{model.ContractStatusPriceNegotiation, model.CarStatusContractProceeding},
		{model.ContractStatusContractDraft, model.CarStatusContractProceeding},
		{model.ContractStatusContractSuccessful, model.CarStatusContractCompleted},
		{model.ContractStatusContractFailed, model.CarStatusPossession},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := DeriveCarStatus(tt.status); got != tt.want {
				t.Fatalf("DeriveCarStatus(%s): want %s got %s", tt.status, tt.want, got)
			}
		})
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name string
		from model.ContractStatus
		to   model.ContractStatus
		car  model.CarStatus
		want error
	}{
		{name: "forward", from: model.ContractStatusCarInspection, to: model.ContractStatusPriceNegotiation, car: model.CarStatusContractProceeding},
		{name: "backward", from: model.ContractStatusContractDraft, to: model.ContractStatusPriceNegotiation, car: model.CarStatusContractProceeding},
		{name: "in progress to failed", from: model.ContractStatusPriceNegotiation, to: model.ContractStatusContractFailed, car: model.CarStatusContractProceeding},
		{name: "successful to draft", from: model.ContractStatusContractSuccessful, to: model.ContractStatusContractDraft, car: model.CarStatusContractCompleted},
		{name: "failed to successful", from: model.ContractStatusContractFailed, to: model.ContractStatusContractSuccessful, car: model.CarStatusPossession, want: ErrInvalidTransition},
		{name: "failed stays failed", from: model.ContractStatusContractFailed, to: model.ContractStatusContractFailed, car: model.CarStatusContractProceeding},
		{name: "reopen inspection", from: model.ContractStatusContractFailed, to: model.ContractStatusCarInspection, car: model.CarStatusPossession},
		{name: "reopen inspection claimed", from: model.ContractStatusContractFailed, to: model.ContractStatusCarInspection, car: model.CarStatusContractProceeding, want: ErrCarUnavailable},
		{name: "reopen negotiation claimed", from: model.ContractStatusContractFailed, to: model.ContractStatusPriceNegotiation, car: model.CarStatusContractProceeding, want: ErrCarUnavailable},
		{name: "reopen draft sold", from: model.ContractStatusContractFailed, to: model.ContractStatusContractDraft, car: model.CarStatusContractCompleted, want: ErrCarUnavailable},
		{name: "unknown target", from: model.ContractStatusCarInspection, to: "archived", car: model.CarStatusContractProceeding, want: ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to, tt.car)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v got %v", tt.want, err)
			}
		})
	}
}

func TestResolutionDate(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	earlier := now.Add(-48 * time.Hour)
	explicit := now.Add(-time.Hour)

	tests := []struct {
		name     string
		prev     model.ContractStatus
		current  *time.Time
		next     model.ContractStatus
		explicit *time.Time
		want     *time.Time
	}{
		{name: "in progress clears", prev: model.ContractStatusContractFailed, current: &earlier, next: model.ContractStatusCarInspection, explicit: &explicit, want: nil},
		{name: "terminal defaults to now", prev: model.ContractStatusContractDraft, next: model.ContractStatusContractSuccessful, want: &now},
		{name: "terminal honours explicit", prev: model.ContractStatusContractDraft, next: model.ContractStatusContractFailed, explicit: &explicit, want: &explicit},
		{name: "unchanged terminal keeps date", prev: model.ContractStatusContractFailed, current: &earlier, next: model.ContractStatusContractFailed, want: &earlier},
		{name: "terminal switch resets date", prev: model.ContractStatusContractSuccessful, current: &earlier, next: model.ContractStatusContractFailed, want: &now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolutionDate(tt.prev, tt.current, tt.next, tt.explicit, now)
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("want nil got %s", got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Fatalf("want %s got %v", tt.want, got)
			}
		})
	}
}
