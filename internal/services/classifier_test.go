package services

import (
	"strings"
	"testing"

	"github.com/omondijeff/errorlytic/internal/domain"
)

func TestClassifyKnownCodes(t *testing.T) {
	c := NewClassifier(8000)

	entries := []domain.FaultEntry{
		{Code: "P0301", Description: "Cylinder 1 Misfire", Status: domain.FaultStatusActive},
		{Code: "P0420", Description: "Catalyst Below Threshold", Status: domain.FaultStatusStored},
		{Code: "U0100", Description: "Lost Communication", Status: domain.FaultStatusPending},
	}

	classified, _, _, _ := c.Classify(entries)

	if classified[0].Severity != domain.SeverityHigh || classified[0].Category != "Ignition System" {
		t.Fatalf("P0301 misclassified: %+v", classified[0])
	}
	if classified[1].Severity != domain.SeverityHigh || classified[1].Category != "Emissions" {
		t.Fatalf("P0420 misclassified: %+v", classified[1])
	}
	if classified[2].Severity != domain.SeverityMedium || classified[2].Category != "Communication Network" {
		t.Fatalf("U0100 misclassified: %+v", classified[2])
	}
}

func TestClassifyUnknownCodeDefaults(t *testing.T) {
	c := NewClassifier(8000)

	classified, _, _, _ := c.Classify([]domain.FaultEntry{{Code: "X9999", Description: "Mystery"}})

	entry := classified[0]
	if entry.Severity != domain.SeverityMedium {
		t.Fatalf("expected medium severity default, got %s", entry.Severity)
	}
	if entry.Category != "Other" {
		t.Fatalf("expected Other category default, got %s", entry.Category)
	}
	if entry.EstimatedCost != 8000 {
		t.Fatalf("expected default cost 8000, got %f", entry.EstimatedCost)
	}
}

func TestSummaryAggregation(t *testing.T) {
	c := NewClassifier(8000)

	// One high, one medium: aggregate severity must be high with exactly
	// one critical error.
	entries := []domain.FaultEntry{
		{Code: "P0301", Description: "Misfire"},
		{Code: "P0171", Description: "Lean"},
	}

	_, summary, _, _ := c.Classify(entries)

	if summary.Severity != domain.SeverityHigh {
		t.Fatalf("expected aggregate severity high, got %s", summary.Severity)
	}
	if summary.CriticalErrors != 1 {
		t.Fatalf("expected 1 critical error, got %d", summary.CriticalErrors)
	}
	if summary.TotalErrors != 2 {
		t.Fatalf("expected 2 total errors, got %d", summary.TotalErrors)
	}
	if summary.EstimatedCost != 12000+9000 {
		t.Fatalf("expected total cost 21000, got %f", summary.EstimatedCost)
	}
}

func TestSummaryTieBreaksTowardCost(t *testing.T) {
	c := NewClassifier(8000)

	// Both medium; the pricier fuel-system fault should headline the overview.
	entries := []domain.FaultEntry{
		{Code: "P0128", Description: "Coolant Thermostat"},
		{Code: "P0171", Description: "System Too Lean"},
	}

	_, summary, _, _ := c.Classify(entries)

	if summary.Severity != domain.SeverityMedium {
		t.Fatalf("expected medium aggregate, got %s", summary.Severity)
	}
	if want := "P0171"; !strings.Contains(summary.Overview, want) {
		t.Fatalf("expected overview to name %s, got %q", want, summary.Overview)
	}
}

func TestCausesAndRecommendations(t *testing.T) {
	c := NewClassifier(8000)

	entries := []domain.FaultEntry{
		{Code: "P0301", Description: "Misfire"},
		{Code: "P0302", Description: "Misfire"},
		{Code: "P0171", Description: "Lean"},
	}

	_, _, causes, recs := c.Classify(entries)

	if len(causes) != 2 {
		t.Fatalf("expected 2 distinct causes, got %v", causes)
	}
	if causes[0] != "Ignition System" || causes[1] != "Fuel System" {
		t.Fatalf("unexpected cause order: %v", causes)
	}

	if len(recs) == 0 || !strings.Contains(recs[0], "Immediate attention required") {
		t.Fatalf("expected urgent recommendation first, got %v", recs)
	}
}

func TestSummaryEmptyEntries(t *testing.T) {
	c := NewClassifier(8000)

	_, summary, causes, _ := c.Classify(nil)

	if summary.Severity != domain.SeverityLow || summary.TotalErrors != 0 {
		t.Fatalf("unexpected empty summary: %+v", summary)
	}
	if len(causes) != 0 {
		t.Fatalf("expected no causes, got %v", causes)
	}
}
