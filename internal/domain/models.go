package domain

type Upload struct {
	ID         string       `json:"id"`
	StorageKey string       `json:"storageKey"`
	Filename   string       `json:"filename"`
	Size       int64        `json:"size"`
	Mime       string       `json:"mime"`
	Format     string       `json:"format,omitempty"`
	Status     string       `json:"status"`
	ParseError string       `json:"parseError,omitempty"`
	Parsed     *ParseResult `json:"parseResult,omitempty"`
	CreatedAt  int64        `json:"createdAt"`
	UpdatedAt  int64        `json:"updatedAt"`
}

const (
	UploadStatusUploaded = "uploaded"
	UploadStatusParsed   = "parsed"
	UploadStatusFailed   = "failed"
)

// ParseResult is cached on the Upload after parsing so the raw report never
// has to be tokenized twice.
type ParseResult struct {
	Success        bool           `json:"success"`
	FaultEntries   []FaultEntry   `json:"faultEntries"`
	VehicleInfo    VehicleInfo    `json:"vehicleInfo"`
	DiagnosticInfo DiagnosticInfo `json:"diagnosticInfo"`
	RawContent     string         `json:"rawContent"`
	ParseErrors    []string       `json:"parseErrors,omitempty"`
}

type VehicleInfo struct {
	VIN     string `json:"vin,omitempty"`
	Make    string `json:"make,omitempty"`
	Model   string `json:"model,omitempty"`
	Year    string `json:"year,omitempty"`
	Mileage int64  `json:"mileage,omitempty"`
}

type DiagnosticInfo struct {
	ReadinessStatus string `json:"readinessStatus,omitempty"`
	ScanTool        string `json:"scanTool,omitempty"`
	TotalErrors     int    `json:"totalErrors"`
}

// FaultEntry is one diagnostic trouble code (DTC) pulled out of a report.
// Severity, Category and EstimatedCost are filled in by the classifier and
// are immutable afterward.
type FaultEntry struct {
	Code          string  `json:"code"`
	Description   string  `json:"description"`
	Severity      string  `json:"severity,omitempty"`
	Category      string  `json:"category,omitempty"`
	EstimatedCost float64 `json:"estimatedCost,omitempty"`
	Status        string  `json:"status"`
}

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

const (
	FaultStatusActive  = "active"
	FaultStatusStored  = "stored"
	FaultStatusPending = "pending"
)

type Analysis struct {
	ID              string       `json:"id"`
	UploadID        string       `json:"uploadId"`
	DTCs            []FaultEntry `json:"dtcs"`
	Summary         Summary      `json:"summary"`
	Causes          []string     `json:"causes"`
	Recommendations []string     `json:"recommendations"`
	AIEnrichment    Enrichment   `json:"aiEnrichment"`
	CreatedAt       int64        `json:"createdAt"`
	UpdatedAt       int64        `json:"updatedAt"`
}

type Summary struct {
	Overview       string  `json:"overview"`
	Severity       string  `json:"severity"`
	TotalErrors    int     `json:"totalErrors"`
	CriticalErrors int     `json:"criticalErrors"`
	EstimatedCost  float64 `json:"estimatedCost"`
}

// Enrichment carries the optional AI assessment. Enabled=false means the
// reasoning service was unavailable; the Analysis stays valid regardless.
type Enrichment struct {
	Enabled           bool               `json:"enabled"`
	Confidence        float64            `json:"confidence"`
	Provider          string             `json:"provider,omitempty"`
	Assessment        string             `json:"aiAssessment,omitempty"`
	ErrorExplanations []ErrorExplanation `json:"errorExplanations,omitempty"`
	Timestamp         int64              `json:"timestamp,omitempty"`
}

type ErrorExplanation struct {
	Code            string `json:"code"`
	Explanation     string `json:"explanation,omitempty"`
	Troubleshooting string `json:"troubleshooting,omitempty"`
}

type Walkthrough struct {
	ID           string         `json:"id"`
	AnalysisID   string         `json:"analysisId"`
	Steps        []RepairStep   `json:"steps"`
	Parts        []RequiredPart `json:"parts"`
	Tools        []string       `json:"tools"`
	Difficulty   string         `json:"difficulty"`
	TotalMinutes int            `json:"totalMinutes"`
	CreatedAt    int64          `json:"createdAt"`
	UpdatedAt    int64          `json:"updatedAt"`
}

type RepairStep struct {
	Order      int    `json:"order"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
	Type       string `json:"type"`
	EstMinutes int    `json:"estMinutes"`
}

const (
	StepTypeCheck   = "check"
	StepTypeReplace = "replace"
	StepTypeRetest  = "retest"
)

type RequiredPart struct {
	Name        string   `json:"name"`
	OEMRef      string   `json:"oemRef"`
	AltRefs     []string `json:"altRefs,omitempty"`
	Quantity    int      `json:"quantity"`
	EstUnitCost float64  `json:"estUnitCost"`
}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Quotation struct {
	ID            string      `json:"id"`
	AnalysisID    string      `json:"analysisId"`
	WalkthroughID string      `json:"walkthroughId"`
	Currency      string      `json:"currency"`
	Labor         Labor       `json:"labor"`
	Parts         []QuoteLine `json:"parts"`
	TaxPct        float64     `json:"taxPct"`
	MarkupPct     float64     `json:"markupPct"`
	Totals        Totals      `json:"totals"`
	Status        string      `json:"status"`
	ShareLinkID   string      `json:"shareLinkId,omitempty"`
	CreatedAt     int64       `json:"createdAt"`
	UpdatedAt     int64       `json:"updatedAt"`
}

type Labor struct {
	Hours       float64 `json:"hours"`
	RatePerHour float64 `json:"ratePerHour"`
	Subtotal    float64 `json:"subtotal"`
}

type QuoteLine struct {
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	Subtotal   float64 `json:"subtotal"`
	PartNumber string  `json:"partNumber,omitempty"`
	IsOEM      bool    `json:"isOEM"`
}

type Totals struct {
	Parts  float64 `json:"parts"`
	Labor  float64 `json:"labor"`
	Markup float64 `json:"markup"`
	Tax    float64 `json:"tax"`
	Grand  float64 `json:"grand"`
}

const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusApproved = "approved"
	QuoteStatusRejected = "rejected"
)
