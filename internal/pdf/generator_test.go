package pdf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nurpe/carmate-contracts/internal/model"
)

func TestContractSummaryWithoutFont(t *testing.T) {
	g, err := NewGenerator("")
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	resolved := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	contract := model.Contract{
		ID:             7,
		Status:         model.ContractStatusContractSuccessful,
		ContractPrice:  20_000_000,
		ResolutionDate: &resolved,
		Car:            &model.Car{CarNumber: "12가3456", Model: &model.CarModel{Model: "Sonata"}},
		Customer:       &model.Customer{Name: "Lee"},
		User:           &model.User{Name: "Kim"},
		Meetings:       []model.Meeting{{Date: resolved.Add(-48 * time.Hour), Notifications: []model.Notification{{}}}},
		Documents:      []model.ContractDocument{{FileName: "contract.pdf"}},
	}

	content, err := g.ContractSummary(contract)
	if err != nil {
		t.Fatalf("ContractSummary: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf: %q", content[:16])
	}
}

func TestNewGeneratorFontErrors(t *testing.T) {
	if _, err := NewGenerator(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Fatalf("missing font file should fail")
	}
	empty := filepath.Join(t.TempDir(), "empty.ttf")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("write font: %v", err)
	}
	if _, err := NewGenerator(empty); err == nil {
		t.Fatalf("empty font file should fail")
	}
}

func TestFormatWon(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 KRW"},
		{999, "999 KRW"},
		{1000, "1,000 KRW"},
		{20000000, "20,000,000 KRW"},
		{-1500, "-1,500 KRW"},
	}
	for _, tt := range tests {
		if got := formatWon(tt.in); got != tt.want {
			t.Errorf("formatWon(%d): want %q got %q", tt.in, tt.want, got)
		}
	}
}
