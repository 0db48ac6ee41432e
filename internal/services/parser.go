package services

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/omondijeff/errorlytic/internal/domain"
)

// Report formats accepted by the parser. An empty hint triggers detection.
const (
	FormatText = "text"
	FormatCSV  = "csv"
	FormatXML  = "xml"
)

var (
	dtcCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,2}[0-9]{3,5}$`)
	vinPattern     = regexp.MustCompile(`\b([A-HJ-NPR-Z0-9]{17})\b`)
	vinKeyword     = regexp.MustCompile(`(?i)\bVIN\b[\s:#]*([A-HJ-NPR-Z0-9]{11,17})`)
	mileageKeyword = regexp.MustCompile(`(?i)\b(?:mileage|odometer|odo)\b[\s:]*([0-9][0-9,\.]*)\s*(?:km|mi|miles|kilometers)?`)
	readinessLine  = regexp.MustCompile(`(?i)\breadiness\b[\s:]*([A-Za-z][A-Za-z /\-]*)`)
	statusToken    = regexp.MustCompile(`(?i)[\[\(]?\b(active|stored|pending)\b[\]\)]?\s*$`)
)

// Parser turns a raw scan-tool dump into structured fault entries plus
// best-effort vehicle metadata. It never returns a Go error for malformed
// input: unrecognized lines land in ParseErrors and Success flips to false
// only when no structured content at all could be extracted.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(raw []byte, formatHint string) domain.ParseResult {
	content := string(raw)

	result := domain.ParseResult{
		RawContent: content,
	}

	if strings.TrimSpace(content) == "" {
		result.ParseErrors = append(result.ParseErrors, "report is empty")
		return result
	}

	format := formatHint
	if format == "" {
		format = detectFormat(content)
	}

	switch format {
	case FormatCSV:
		p.parseCSV(content, &result)
	case FormatXML:
		p.parseXML(content, &result)
	case FormatText:
		p.parseText(content, &result)
	default:
		result.ParseErrors = append(result.ParseErrors, fmt.Sprintf("unrecognized report format %q", format))
		return result
	}

	p.extractVehicleInfo(content, &result)
	result.DiagnosticInfo.TotalErrors = len(result.FaultEntries)
	result.Success = len(result.FaultEntries) > 0

	return result
}

func detectFormat(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "<") {
		return FormatXML
	}

	commas := 0
	lines := 0
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		if strings.Count(line, ",") >= 2 {
			commas++
		}
	}
	if lines > 0 && commas*2 > lines {
		return FormatCSV
	}
	return FormatText
}

func (p *Parser) parseText(content string, result *domain.ParseResult) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isMetadataLine(line) {
			continue
		}

		entry, ok := parseFaultLine(line)
		if !ok {
			result.ParseErrors = append(result.ParseErrors, fmt.Sprintf("unrecognized line: %s", truncate(line, 80)))
			continue
		}
		result.FaultEntries = append(result.FaultEntries, entry)
	}
}

func (p *Parser) parseCSV(content string, result *domain.ParseResult) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		// Fall back to line-by-line text parsing rather than aborting.
		result.ParseErrors = append(result.ParseErrors, fmt.Sprintf("csv read: %v", err))
		p.parseText(content, result)
		return
	}

	for i, record := range records {
		if len(record) < 2 {
			result.ParseErrors = append(result.ParseErrors, fmt.Sprintf("row %d: expected code and description", i+1))
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(record[0]))
		if i == 0 && (strings.EqualFold(code, "code") || strings.EqualFold(code, "dtc")) {
			continue
		}
		if !dtcCodePattern.MatchString(code) {
			result.ParseErrors = append(result.ParseErrors, fmt.Sprintf("row %d: invalid code %q", i+1, record[0]))
			continue
		}

		entry := domain.FaultEntry{
			Code:        code,
			Description: strings.TrimSpace(record[1]),
			Status:      domain.FaultStatusActive,
		}
		if len(record) > 2 {
			entry.Status = normalizeFaultStatus(record[2])
		}
		result.FaultEntries = append(result.FaultEntries, entry)
	}
}

type xmlReport struct {
	VIN     string   `xml:"vehicle>vin"`
	Mileage string   `xml:"vehicle>mileage"`
	Faults  []xmlDTC `xml:"faults>dtc"`
	DTCs    []xmlDTC `xml:"dtc"`
}

type xmlDTC struct {
	Code        string `xml:"code,attr"`
	Status      string `xml:"status,attr"`
	Description string `xml:",chardata"`
}

func (p *Parser) parseXML(content string, result *domain.ParseResult) {
	var report xmlReport
	if err := xml.Unmarshal([]byte(content), &report); err != nil {
		result.ParseErrors = append(result.ParseErrors, fmt.Sprintf("xml decode: %v", err))
		return
	}

	dtcs := report.Faults
	if len(dtcs) == 0 {
		dtcs = report.DTCs
	}

	for i, dtc := range dtcs {
		code := strings.ToUpper(strings.TrimSpace(dtc.Code))
		if code == "" {
			result.ParseErrors = append(result.ParseErrors, fmt.Sprintf("dtc element %d: missing code attribute", i+1))
			continue
		}
		result.FaultEntries = append(result.FaultEntries, domain.FaultEntry{
			Code:        code,
			Description: strings.TrimSpace(dtc.Description),
			Status:      normalizeFaultStatus(dtc.Status),
		})
	}

	if vin := strings.TrimSpace(report.VIN); vin != "" {
		result.VehicleInfo.VIN = strings.ToUpper(vin)
	}
	if m := strings.TrimSpace(report.Mileage); m != "" {
		if mileage, err := strconv.ParseInt(strings.ReplaceAll(m, ",", ""), 10, 64); err == nil {
			result.VehicleInfo.Mileage = mileage
		}
	}
}

func parseFaultLine(line string) (domain.FaultEntry, bool) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ':' || r == ',' || r == ';'
	})
	if len(fields) < 2 {
		return domain.FaultEntry{}, false
	}

	code := strings.ToUpper(strings.Trim(fields[0], "-"))
	if !dtcCodePattern.MatchString(code) {
		return domain.FaultEntry{}, false
	}

	// fields[0] may not start at offset zero when the line leads with a
	// separator, so slice from where the token actually ends.
	codeEnd := strings.Index(line, fields[0]) + len(fields[0])
	rest := strings.TrimSpace(line[codeEnd:])
	description := strings.TrimSpace(strings.TrimLeft(rest, " \t:,;-"))
	status := domain.FaultStatusActive
	if sm := statusToken.FindStringSubmatch(description); sm != nil {
		status = normalizeFaultStatus(sm[1])
		description = strings.TrimSpace(description[:len(description)-len(sm[0])])
	}

	if description == "" {
		return domain.FaultEntry{}, false
	}

	return domain.FaultEntry{
		Code:        code,
		Description: description,
		Status:      status,
	}, true
}

func (p *Parser) extractVehicleInfo(content string, result *domain.ParseResult) {
	if result.VehicleInfo.VIN == "" {
		if m := vinKeyword.FindStringSubmatch(content); m != nil {
			result.VehicleInfo.VIN = strings.ToUpper(m[1])
		} else if m := vinPattern.FindStringSubmatch(content); m != nil {
			result.VehicleInfo.VIN = strings.ToUpper(m[1])
		}
	}

	if result.VehicleInfo.Mileage == 0 {
		if m := mileageKeyword.FindStringSubmatch(content); m != nil {
			cleaned := strings.ReplaceAll(m[1], ",", "")
			cleaned = strings.Split(cleaned, ".")[0]
			if mileage, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
				result.VehicleInfo.Mileage = mileage
			}
		}
	}

	if m := readinessLine.FindStringSubmatch(content); m != nil {
		result.DiagnosticInfo.ReadinessStatus = strings.TrimSpace(m[1])
	}
}

// isMetadataLine filters header lines so they do not show up as parse errors.
func isMetadataLine(line string) bool {
	lower := strings.ToLower(line)
	prefixes := []string{"vin", "mileage", "odometer", "odo", "readiness", "make", "model", "year", "date", "scan tool", "report", "====", "----"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func normalizeFaultStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case domain.FaultStatusStored:
		return domain.FaultStatusStored
	case domain.FaultStatusPending:
		return domain.FaultStatusPending
	default:
		return domain.FaultStatusActive
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
