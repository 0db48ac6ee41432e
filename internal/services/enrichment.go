package services

import (
	"context"
	"log"
	"time"

	"github.com/omondijeff/errorlytic/internal/domain"
)

// ReasoningClient is the contract for the external reasoning service. Each
// call is independently fallible; the Enricher decides what a failure means.
type ReasoningClient interface {
	Provider() string
	Assess(ctx context.Context, faults []domain.FaultEntry, vehicle domain.VehicleInfo) (string, error)
	Explain(ctx context.Context, faultCode string) (string, error)
	Troubleshoot(ctx context.Context, faultCode string) (string, error)
}

// Enricher asks the reasoning service for an assessment and per-fault
// explanations. The stage is strictly optional: any failure of the overall
// assessment yields a disabled enrichment record, and a failure on one
// fault's explanation degrades that entry alone.
type Enricher struct {
	client  ReasoningClient
	timeout time.Duration
}

func NewEnricher(client ReasoningClient, timeout time.Duration) *Enricher {
	return &Enricher{client: client, timeout: timeout}
}

func (e *Enricher) Enrich(ctx context.Context, faults []domain.FaultEntry, vehicle domain.VehicleInfo) domain.Enrichment {
	if e.client == nil {
		return domain.Enrichment{Enabled: false}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	assessment, err := e.client.Assess(ctx, faults, vehicle)
	if err != nil {
		log.Printf("enrichment unavailable: %v", err)
		return domain.Enrichment{Enabled: false}
	}

	enrichment := domain.Enrichment{
		Enabled:    true,
		Provider:   e.client.Provider(),
		Assessment: assessment,
		Timestamp:  time.Now().Unix(),
	}

	answered := 0
	for _, fault := range faults {
		explanation := domain.ErrorExplanation{Code: fault.Code}

		text, err := e.client.Explain(ctx, fault.Code)
		if err != nil {
			log.Printf("explain %s failed: %v", fault.Code, err)
		} else {
			explanation.Explanation = text
			answered++
		}

		steps, err := e.client.Troubleshoot(ctx, fault.Code)
		if err != nil {
			log.Printf("troubleshoot %s failed: %v", fault.Code, err)
		} else {
			explanation.Troubleshooting = steps
		}

		enrichment.ErrorExplanations = append(enrichment.ErrorExplanations, explanation)
	}

	// Confidence reflects how much of the requested detail actually came back.
	if len(faults) == 0 {
		enrichment.Confidence = 0.9
	} else {
		enrichment.Confidence = 0.5 + 0.4*float64(answered)/float64(len(faults))
	}

	return enrichment
}
