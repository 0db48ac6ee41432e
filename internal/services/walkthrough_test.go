package services

import (
	"testing"

	"github.com/omondijeff/errorlytic/internal/domain"
)

func TestSynthesizeStepOrdering(t *testing.T) {
	s := NewSynthesizer()

	analysis := domain.Analysis{
		ID:     "a-1",
		Causes: []string{"Ignition System", "Fuel System"},
		DTCs: []domain.FaultEntry{
			{Code: "P0301", Severity: domain.SeverityHigh, Category: "Ignition System"},
			{Code: "P0171", Severity: domain.SeverityMedium, Category: "Fuel System"},
		},
	}

	walkthrough := s.Synthesize(analysis)

	if walkthrough.AnalysisID != "a-1" {
		t.Fatalf("walkthrough not tied to analysis: %+v", walkthrough)
	}
	if len(walkthrough.Steps) != 6 {
		t.Fatalf("expected 6 steps for 2 causes, got %d", len(walkthrough.Steps))
	}

	// Orders must be a contiguous 1..N sequence.
	for i, step := range walkthrough.Steps {
		if step.Order != i+1 {
			t.Fatalf("step %d has order %d, expected %d", i, step.Order, i+1)
		}
	}

	types := []string{}
	for _, step := range walkthrough.Steps[:3] {
		types = append(types, step.Type)
	}
	if types[0] != domain.StepTypeCheck || types[1] != domain.StepTypeReplace || types[2] != domain.StepTypeRetest {
		t.Fatalf("unexpected step sequence for first cause: %v", types)
	}

	if len(walkthrough.Parts) == 0 {
		t.Fatalf("expected parts attached from the category lookup")
	}
	if len(walkthrough.Tools) == 0 {
		t.Fatalf("expected tools attached from the category lookup")
	}

	wantMinutes := 0
	for _, step := range walkthrough.Steps {
		wantMinutes += step.EstMinutes
	}
	if walkthrough.TotalMinutes != wantMinutes {
		t.Fatalf("total minutes %d does not match step sum %d", walkthrough.TotalMinutes, wantMinutes)
	}
}

func TestSynthesizeToolsDeduplicated(t *testing.T) {
	s := NewSynthesizer()

	analysis := domain.Analysis{
		ID:     "a-1",
		Causes: []string{"Ignition System", "Fuel System", "Brakes"},
	}

	walkthrough := s.Synthesize(analysis)

	seen := map[string]bool{}
	for _, tool := range walkthrough.Tools {
		if seen[tool] {
			t.Fatalf("duplicate tool %q in %v", tool, walkthrough.Tools)
		}
		seen[tool] = true
	}
}

func TestSynthesizeUnknownCategoryFallsBack(t *testing.T) {
	s := NewSynthesizer()

	analysis := domain.Analysis{
		ID:     "a-1",
		Causes: []string{"Suspension Mystery"},
	}

	walkthrough := s.Synthesize(analysis)

	if len(walkthrough.Steps) != 3 {
		t.Fatalf("expected fallback 3-step plan, got %d steps", len(walkthrough.Steps))
	}
	if walkthrough.Steps[0].Order != 1 || walkthrough.Steps[2].Order != 3 {
		t.Fatalf("fallback plan ordering broken: %+v", walkthrough.Steps)
	}
}

func TestSynthesizeDifficulty(t *testing.T) {
	s := NewSynthesizer()

	easy := s.Synthesize(domain.Analysis{
		ID:     "a-easy",
		Causes: []string{"Body Electrical"},
		DTCs:   []domain.FaultEntry{{Code: "B1000", Severity: domain.SeverityLow}},
	})
	if easy.Difficulty != domain.DifficultyEasy {
		t.Fatalf("expected easy difficulty, got %s", easy.Difficulty)
	}

	hard := s.Synthesize(domain.Analysis{
		ID:     "a-hard",
		Causes: []string{"Ignition System", "Emissions", "Transmission"},
		DTCs: []domain.FaultEntry{
			{Code: "P0301", Severity: domain.SeverityHigh},
			{Code: "P0420", Severity: domain.SeverityHigh},
			{Code: "P0700", Severity: domain.SeverityHigh},
		},
	})
	if hard.Difficulty != domain.DifficultyHard {
		t.Fatalf("expected hard difficulty, got %s", hard.Difficulty)
	}
}
