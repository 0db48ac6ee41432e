package services

import (
	"context"
	"log"

	"github.com/omondijeff/errorlytic/internal/domain"
	"github.com/omondijeff/errorlytic/internal/storage"
)

// Stage contracts. Each stage is injected so it can be substituted in tests.
type (
	ReportParser interface {
		Parse(raw []byte, formatHint string) domain.ParseResult
	}
	FaultClassifier interface {
		Classify(entries []domain.FaultEntry) ([]domain.FaultEntry, domain.Summary, []string, []string)
	}
	AnalysisEnricher interface {
		Enrich(ctx context.Context, faults []domain.FaultEntry, vehicle domain.VehicleInfo) domain.Enrichment
	}
	WalkthroughSynthesizer interface {
		Synthesize(analysis domain.Analysis) domain.Walkthrough
	}
	QuotePricer interface {
		Price(walkthrough domain.Walkthrough, opts QuoteOptions) (domain.Quotation, error)
	}
)

// AnalyzeResponse is the caller-facing result of the parse/classify/enrich
// pipeline.
type AnalyzeResponse struct {
	AnalysisID string              `json:"analysisId"`
	UploadID   string              `json:"uploadId"`
	DTCs       []domain.FaultEntry `json:"dtcs"`
	Summary    domain.Summary      `json:"summary"`
	AIAnalysis *domain.Enrichment  `json:"aiAnalysis,omitempty"`
}

// Analyzer drives the pipeline: Parse → Classify → (optional) Enrich →
// persist Analysis, then on demand Walkthrough and Quotation. Every stage
// result is persisted before the next stage begins.
type Analyzer struct {
	store       *storage.Store
	files       *storage.FileManager
	parser      ReportParser
	classifier  FaultClassifier
	enricher    AnalysisEnricher
	synthesizer WalkthroughSynthesizer
	pricer      QuotePricer
}

func NewAnalyzer(store *storage.Store, files *storage.FileManager, parser ReportParser, classifier FaultClassifier, enricher AnalysisEnricher, synthesizer WalkthroughSynthesizer, pricer QuotePricer) *Analyzer {
	return &Analyzer{
		store:       store,
		files:       files,
		parser:      parser,
		classifier:  classifier,
		enricher:    enricher,
		synthesizer: synthesizer,
		pricer:      pricer,
	}
}

// ParseAndAnalyze runs the full pipeline for one upload. The upload must be
// in the uploaded state; the status transition is what guarantees at-most-once
// processing when two requests race on the same upload.
func (a *Analyzer) ParseAndAnalyze(ctx context.Context, uploadID string) (AnalyzeResponse, error) {
	upload, err := a.store.GetUpload(uploadID)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	if upload.Status != domain.UploadStatusUploaded {
		return AnalyzeResponse{}, domain.NotFoundf("upload %s is not awaiting parsing (status %s)", uploadID, upload.Status)
	}

	raw, err := a.files.Get(upload.StorageKey)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	result := a.parser.Parse(raw, upload.Format)
	if !result.Success {
		reason := "no structured content could be extracted"
		if len(result.ParseErrors) > 0 {
			reason = result.ParseErrors[0]
		}
		if _, err := a.store.MarkUploadFailed(uploadID, reason); err != nil {
			return AnalyzeResponse{}, err
		}
		return AnalyzeResponse{}, &domain.ParseError{UploadID: uploadID, Reason: reason}
	}

	dtcs, summary, causes, recommendations := a.classifier.Classify(result.FaultEntries)
	result.FaultEntries = dtcs

	if _, err := a.store.MarkUploadParsed(uploadID, &result); err != nil {
		return AnalyzeResponse{}, err
	}

	enrichment := a.enricher.Enrich(ctx, dtcs, result.VehicleInfo)
	if !enrichment.Enabled {
		log.Printf("analysis for upload %s proceeding without enrichment", uploadID)
	}

	analysis, err := a.store.CreateAnalysis(domain.Analysis{
		UploadID:        uploadID,
		DTCs:            dtcs,
		Summary:         summary,
		Causes:          causes,
		Recommendations: recommendations,
		AIEnrichment:    enrichment,
	})
	if err != nil {
		return AnalyzeResponse{}, err
	}

	resp := AnalyzeResponse{
		AnalysisID: analysis.ID,
		UploadID:   uploadID,
		DTCs:       analysis.DTCs,
		Summary:    analysis.Summary,
	}
	if enrichment.Enabled {
		resp.AIAnalysis = &analysis.AIEnrichment
	}
	return resp, nil
}

// GenerateWalkthrough builds (or rebuilds, wholesale) the repair procedure
// for an analysis.
func (a *Analyzer) GenerateWalkthrough(analysisID string) (domain.Walkthrough, error) {
	analysis, err := a.store.GetAnalysis(analysisID)
	if err != nil {
		return domain.Walkthrough{}, err
	}

	walkthrough := a.synthesizer.Synthesize(analysis)
	return a.store.SaveWalkthrough(walkthrough)
}

// GenerateQuotation prices the analysis's walkthrough. A missing walkthrough
// is reported with an explicit pointer at the prerequisite step.
func (a *Analyzer) GenerateQuotation(analysisID string, opts QuoteOptions) (domain.Quotation, error) {
	if _, err := a.store.GetAnalysis(analysisID); err != nil {
		return domain.Quotation{}, err
	}

	walkthrough, err := a.store.GetWalkthroughByAnalysis(analysisID)
	if err != nil {
		return domain.Quotation{}, domain.NotFoundMsg("Walkthrough not found. Please generate walkthrough first.")
	}

	quote, err := a.pricer.Price(walkthrough, opts)
	if err != nil {
		return domain.Quotation{}, err
	}

	return a.store.CreateQuotation(quote)
}
