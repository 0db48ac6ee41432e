package services

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omondijeff/errorlytic/internal/domain"
)

// QuoteOptions are the caller-supplied pricing knobs. LaborRate is
// denominated in the base currency and converted alongside the catalog
// prices when a different target currency is requested.
type QuoteOptions struct {
	Currency    string  `json:"currency"`
	LaborRate   float64 `json:"laborRate"`
	MarkupPct   float64 `json:"markupPct"`
	TaxPct      float64 `json:"taxPct"`
	UseOEMParts bool    `json:"useOEMParts"`
}

// QuoteEngine prices a walkthrough's parts and labor in a target currency.
type QuoteEngine struct {
	pricing *Pricing
}

func NewQuoteEngine(pricing *Pricing) *QuoteEngine {
	return &QuoteEngine{pricing: pricing}
}

// Price builds a draft Quotation from a walkthrough.
//
// The authoritative totals formula:
//
//	laborSubtotal = hours × ratePerHour
//	partsSubtotal = Σ(unitPrice × qty)
//	markup        = partsSubtotal × markupPct/100
//	tax           = (partsSubtotal + laborSubtotal) × taxPct/100
//	grand         = partsSubtotal + laborSubtotal + tax + markup
func (e *QuoteEngine) Price(walkthrough domain.Walkthrough, opts QuoteOptions) (domain.Quotation, error) {
	opts.Currency = strings.ToUpper(opts.Currency)
	if err := e.validate(opts); err != nil {
		return domain.Quotation{}, err
	}

	now := time.Now().Unix()
	quote := domain.Quotation{
		ID:            uuid.NewString(),
		AnalysisID:    walkthrough.AnalysisID,
		WalkthroughID: walkthrough.ID,
		Currency:      opts.Currency,
		TaxPct:        opts.TaxPct,
		MarkupPct:     opts.MarkupPct,
		Status:        domain.QuoteStatusDraft,
		Parts:         []domain.QuoteLine{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var partsSubtotal float64
	for _, part := range walkthrough.Parts {
		price, err := e.pricing.GetPartPricing(part.Name, opts.Currency, opts.UseOEMParts)
		if err != nil {
			return domain.Quotation{}, err
		}

		qty := part.Quantity
		if qty <= 0 {
			qty = 1
		}

		line := domain.QuoteLine{
			Name:       part.Name,
			UnitPrice:  round2(price.Price),
			Quantity:   qty,
			Subtotal:   round2(price.Price * float64(qty)),
			PartNumber: e.pricing.partNumber(part.Name, part.OEMRef),
			IsOEM:      opts.UseOEMParts,
		}
		quote.Parts = append(quote.Parts, line)
		partsSubtotal += line.Subtotal
	}

	hours := float64(walkthrough.TotalMinutes) / 60
	laborRate, err := e.pricing.ConvertCurrency(opts.LaborRate, BaseCurrency, opts.Currency)
	if err != nil {
		return domain.Quotation{}, err
	}

	quote.Labor = domain.Labor{
		Hours:       round2(hours),
		RatePerHour: round2(laborRate),
		Subtotal:    round2(round2(hours) * round2(laborRate)),
	}

	markup := partsSubtotal * opts.MarkupPct / 100
	tax := (partsSubtotal + quote.Labor.Subtotal) * opts.TaxPct / 100

	quote.Totals = domain.Totals{
		Parts:  round2(partsSubtotal),
		Labor:  quote.Labor.Subtotal,
		Markup: round2(markup),
		Tax:    round2(tax),
	}
	quote.Totals.Grand = round2(quote.Totals.Parts + quote.Totals.Labor + quote.Totals.Tax + quote.Totals.Markup)

	return quote, nil
}

func (e *QuoteEngine) validate(opts QuoteOptions) error {
	if !e.pricing.SupportedCurrency(opts.Currency) {
		return domain.Validationf("unsupported currency %q", opts.Currency)
	}
	if opts.LaborRate < 0 {
		return domain.Validationf("labor rate must not be negative")
	}
	if opts.MarkupPct < 0 || opts.MarkupPct > 100 {
		return domain.Validationf("markup percent must be between 0 and 100")
	}
	if opts.TaxPct < 0 || opts.TaxPct > 100 {
		return domain.Validationf("tax percent must be between 0 and 100")
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
