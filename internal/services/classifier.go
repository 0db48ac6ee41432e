package services

import (
	"fmt"
	"strings"

	"github.com/omondijeff/errorlytic/internal/domain"
)

// classificationRule maps a fault-code prefix to its subsystem classification.
// Longest matching prefix wins, so specific patterns like P030 shadow the
// generic powertrain bucket.
type classificationRule struct {
	prefix   string
	category string
	severity string
	cost     float64
}

// Costs are in the base currency (KES).
var classificationRules = []classificationRule{
	{prefix: "P030", category: "Ignition System", severity: domain.SeverityHigh, cost: 12000},
	{prefix: "P035", category: "Ignition System", severity: domain.SeverityMedium, cost: 7500},
	{prefix: "P017", category: "Fuel System", severity: domain.SeverityMedium, cost: 9000},
	{prefix: "P02", category: "Fuel System", severity: domain.SeverityMedium, cost: 8500},
	{prefix: "P042", category: "Emissions", severity: domain.SeverityHigh, cost: 45000},
	{prefix: "P044", category: "Emissions", severity: domain.SeverityLow, cost: 4000},
	{prefix: "P011", category: "Cooling System", severity: domain.SeverityMedium, cost: 6500},
	{prefix: "P012", category: "Cooling System", severity: domain.SeverityMedium, cost: 6500},
	{prefix: "P07", category: "Transmission", severity: domain.SeverityHigh, cost: 35000},
	{prefix: "P0", category: "Powertrain", severity: domain.SeverityMedium, cost: 10000},
	{prefix: "P1", category: "Powertrain", severity: domain.SeverityMedium, cost: 10000},
	{prefix: "C0", category: "Brakes", severity: domain.SeverityHigh, cost: 15000},
	{prefix: "C1", category: "Chassis", severity: domain.SeverityMedium, cost: 12000},
	{prefix: "B0", category: "Airbag System", severity: domain.SeverityHigh, cost: 20000},
	{prefix: "B1", category: "Body Electrical", severity: domain.SeverityLow, cost: 5000},
	{prefix: "B2", category: "Body Electrical", severity: domain.SeverityLow, cost: 5000},
	{prefix: "U0", category: "Communication Network", severity: domain.SeverityMedium, cost: 8000},
	{prefix: "U1", category: "Communication Network", severity: domain.SeverityLow, cost: 6000},
}

const categoryOther = "Other"

// Classifier annotates parsed fault entries with severity, category and a
// baseline cost estimate, and aggregates the report-level summary. The rules
// are deterministic tables; nothing here depends on the enrichment stage.
type Classifier struct {
	defaultCost float64
}

func NewClassifier(defaultCost float64) *Classifier {
	return &Classifier{defaultCost: defaultCost}
}

func (c *Classifier) Classify(entries []domain.FaultEntry) ([]domain.FaultEntry, domain.Summary, []string, []string) {
	classified := make([]domain.FaultEntry, len(entries))

	for i, entry := range entries {
		entry.Severity, entry.Category, entry.EstimatedCost = c.classifyCode(entry.Code)
		classified[i] = entry
	}

	summary := c.summarize(classified)
	causes := collectCauses(classified)
	recommendations := buildRecommendations(summary, causes)

	return classified, summary, causes, recommendations
}

func (c *Classifier) classifyCode(code string) (severity, category string, cost float64) {
	code = strings.ToUpper(code)

	best := classificationRule{}
	for _, rule := range classificationRules {
		if strings.HasPrefix(code, rule.prefix) && len(rule.prefix) > len(best.prefix) {
			best = rule
		}
	}

	if best.prefix == "" {
		return domain.SeverityMedium, categoryOther, c.defaultCost
	}
	return best.severity, best.category, best.cost
}

func (c *Classifier) summarize(entries []domain.FaultEntry) domain.Summary {
	summary := domain.Summary{
		Severity:    domain.SeverityLow,
		TotalErrors: len(entries),
	}

	if len(entries) == 0 {
		summary.Overview = "No fault codes were found in this report."
		return summary
	}

	var worst *domain.FaultEntry
	for i := range entries {
		entry := &entries[i]
		summary.EstimatedCost += entry.EstimatedCost
		if entry.Severity == domain.SeverityHigh {
			summary.CriticalErrors++
		}

		// Ties on severity break toward the more expensive entry.
		if worst == nil ||
			severityRank(entry.Severity) > severityRank(worst.Severity) ||
			(severityRank(entry.Severity) == severityRank(worst.Severity) && entry.EstimatedCost > worst.EstimatedCost) {
			worst = entry
		}
	}

	summary.Severity = worst.Severity
	summary.Overview = fmt.Sprintf("%d fault code(s) detected, %d critical. Most severe: %s (%s).",
		summary.TotalErrors, summary.CriticalErrors, worst.Code, worst.Category)

	return summary
}

func severityRank(severity string) int {
	switch severity {
	case domain.SeverityHigh:
		return 3
	case domain.SeverityMedium:
		return 2
	case domain.SeverityLow:
		return 1
	default:
		return 0
	}
}

// collectCauses returns the distinct categories in first-seen order.
func collectCauses(entries []domain.FaultEntry) []string {
	seen := map[string]bool{}
	causes := []string{}
	for _, entry := range entries {
		if entry.Category == "" || seen[entry.Category] {
			continue
		}
		seen[entry.Category] = true
		causes = append(causes, entry.Category)
	}
	return causes
}

func buildRecommendations(summary domain.Summary, causes []string) []string {
	recs := []string{}

	switch summary.Severity {
	case domain.SeverityHigh:
		recs = append(recs, "Immediate attention required. Do not drive long distances before repair.")
	case domain.SeverityMedium:
		recs = append(recs, "Schedule a repair soon to avoid further damage.")
	default:
		recs = append(recs, "No urgent repairs needed. Monitor during the next service.")
	}

	for _, cause := range causes {
		switch cause {
		case "Ignition System":
			recs = append(recs, "Inspect spark plugs and ignition coils.")
		case "Fuel System":
			recs = append(recs, "Check fuel pressure and injectors for clogging.")
		case "Emissions":
			recs = append(recs, "Have the catalytic converter and oxygen sensors tested.")
		case "Brakes":
			recs = append(recs, "Inspect the brake system before driving further.")
		case "Cooling System":
			recs = append(recs, "Check coolant level and thermostat operation.")
		case "Transmission":
			recs = append(recs, "Have the transmission inspected by a specialist.")
		}
	}

	if summary.TotalErrors > 5 {
		recs = append(recs, "A full diagnostic inspection is advised given the number of fault codes.")
	}

	return recs
}
