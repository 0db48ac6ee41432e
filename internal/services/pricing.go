package services

import (
	"strings"

	"github.com/omondijeff/errorlytic/internal/domain"
)

// BaseCurrency is the currency the parts catalog is denominated in.
const BaseCurrency = "KES"

// Static bilateral exchange rates; one unit of the key's first currency in
// units of the second. Not a live feed. Inverse pairs are derived.
var exchangeRates = map[[2]string]float64{
	{"USD", "KES"}: 149.25,
	{"EUR", "KES"}: 162.50,
	{"GBP", "KES"}: 189.75,
}

// catalogEntry prices a part in the base currency, per sourcing tier.
type catalogEntry struct {
	oem         float64
	aftermarket float64
	partNumber  string
}

var partsCatalog = map[string]catalogEntry{
	"Spark Plugs":         {oem: 2500, aftermarket: 1500, partNumber: "NGK-ILZKR7B"},
	"Ignition Coil":       {oem: 7500, aftermarket: 4500, partNumber: "DENSO-673-1303"},
	"Fuel Filter":         {oem: 3500, aftermarket: 2000, partNumber: "TOYOTA-23300-75140"},
	"Air Filter":          {oem: 2000, aftermarket: 1200, partNumber: "TOYOTA-17801-0L040"},
	"Oxygen Sensor":       {oem: 9000, aftermarket: 5500, partNumber: "DENSO-234-9009"},
	"Catalytic Converter": {oem: 45000, aftermarket: 28000, partNumber: "TOYOTA-25051"},
	"Thermostat":          {oem: 3000, aftermarket: 1800, partNumber: "TOYOTA-90916-03100"},
	"Coolant":             {oem: 2200, aftermarket: 1400, partNumber: "TOYOTA-LLC-5L"},
	"Brake Pads":          {oem: 6000, aftermarket: 3500, partNumber: "TOYOTA-04465-02220"},
	"Wheel Speed Sensor":  {oem: 5500, aftermarket: 3200, partNumber: "TOYOTA-89542-02100"},
	"Transmission Fluid":  {oem: 8000, aftermarket: 5000, partNumber: "TOYOTA-WS-4L"},
	"Shift Solenoid":      {oem: 12000, aftermarket: 7500, partNumber: "AISIN-SAT011"},
}

type PartPrice struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Pricing answers pure pricing questions over the static catalog and rate
// table. It performs no I/O.
type Pricing struct {
	defaultPrice float64
}

func NewPricing(defaultPrice float64) *Pricing {
	return &Pricing{defaultPrice: defaultPrice}
}

func (p *Pricing) SupportedCurrency(currency string) bool {
	currency = strings.ToUpper(currency)
	if currency == BaseCurrency {
		return true
	}
	for pair := range exchangeRates {
		if pair[0] == currency || pair[1] == currency {
			return true
		}
	}
	return false
}

// ConvertCurrency converts via the static rate table. Same-currency requests
// return the amount unchanged.
func (p *Pricing) ConvertCurrency(amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return amount, nil
	}

	if rate, ok := exchangeRates[[2]string{from, to}]; ok {
		return amount * rate, nil
	}
	if rate, ok := exchangeRates[[2]string{to, from}]; ok {
		return amount / rate, nil
	}

	return 0, domain.Validationf("no exchange rate for %s to %s", from, to)
}

// GetPartPricing looks up a part price by name and sourcing tier, converting
// into the requested currency. Unknown parts fall back to the configured
// default price (OEM tier; aftermarket takes 60% of it).
func (p *Pricing) GetPartPricing(partName, currency string, isOEM bool) (PartPrice, error) {
	currency = strings.ToUpper(currency)
	if !p.SupportedCurrency(currency) {
		return PartPrice{}, domain.Validationf("unsupported currency %q", currency)
	}

	base := p.defaultPrice
	if !isOEM {
		base = p.defaultPrice * 0.6
	}
	if entry, ok := partsCatalog[partName]; ok {
		if isOEM {
			base = entry.oem
		} else {
			base = entry.aftermarket
		}
	}

	price, err := p.ConvertCurrency(base, BaseCurrency, currency)
	if err != nil {
		return PartPrice{}, err
	}

	return PartPrice{Price: price, Currency: currency}, nil
}

func (p *Pricing) partNumber(partName, oemRef string) string {
	if entry, ok := partsCatalog[partName]; ok {
		return entry.partNumber
	}
	return oemRef
}
