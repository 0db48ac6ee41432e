package services

import (
	"strings"
	"testing"

	"github.com/omondijeff/errorlytic/internal/domain"
)

const sampleTextReport = `Scan Tool: OBDLink MX+
VIN: JT2BF22K1W0123456
Mileage: 120,450 km
Readiness: OK
----
P0301 Cylinder 1 Misfire Detected [ACTIVE]
P0171: System Too Lean Bank 1 (stored)
U0100 Lost Communication With ECM pending
this line is not a fault code
`

func TestParseTextReport(t *testing.T) {
	p := NewParser()

	result := p.Parse([]byte(sampleTextReport), FormatText)

	if !result.Success {
		t.Fatalf("expected success, parse errors: %v", result.ParseErrors)
	}
	if len(result.FaultEntries) != 3 {
		t.Fatalf("expected 3 fault entries, got %d: %+v", len(result.FaultEntries), result.FaultEntries)
	}

	first := result.FaultEntries[0]
	if first.Code != "P0301" {
		t.Fatalf("expected code P0301, got %s", first.Code)
	}
	if first.Description != "Cylinder 1 Misfire Detected" {
		t.Fatalf("unexpected description: %q", first.Description)
	}
	if first.Status != domain.FaultStatusActive {
		t.Fatalf("expected active status, got %s", first.Status)
	}

	if result.FaultEntries[1].Status != domain.FaultStatusStored {
		t.Fatalf("expected stored status, got %s", result.FaultEntries[1].Status)
	}
	if result.FaultEntries[2].Status != domain.FaultStatusPending {
		t.Fatalf("expected pending status, got %s", result.FaultEntries[2].Status)
	}

	if result.VehicleInfo.VIN != "JT2BF22K1W0123456" {
		t.Fatalf("expected VIN extracted, got %q", result.VehicleInfo.VIN)
	}
	if result.VehicleInfo.Mileage != 120450 {
		t.Fatalf("expected mileage 120450, got %d", result.VehicleInfo.Mileage)
	}
	if result.DiagnosticInfo.TotalErrors != 3 {
		t.Fatalf("expected 3 total errors, got %d", result.DiagnosticInfo.TotalErrors)
	}

	if len(result.ParseErrors) != 1 {
		t.Fatalf("expected 1 parse error for the junk line, got %v", result.ParseErrors)
	}
}

func TestParseLineWithLeadingSeparator(t *testing.T) {
	p := NewParser()

	result := p.Parse([]byte(":P0301 Cylinder 1 Misfire Detected\n-P0171, System Too Lean Bank 1\n"), FormatText)

	if !result.Success {
		t.Fatalf("expected success, parse errors: %v", result.ParseErrors)
	}
	if len(result.FaultEntries) != 2 {
		t.Fatalf("expected 2 fault entries, got %d: %+v", len(result.FaultEntries), result.FaultEntries)
	}
	if result.FaultEntries[0].Code != "P0301" || result.FaultEntries[0].Description != "Cylinder 1 Misfire Detected" {
		t.Fatalf("unexpected first entry: %+v", result.FaultEntries[0])
	}
	if result.FaultEntries[1].Code != "P0171" || result.FaultEntries[1].Description != "System Too Lean Bank 1" {
		t.Fatalf("unexpected second entry: %+v", result.FaultEntries[1])
	}
}

func TestParseCSVReport(t *testing.T) {
	p := NewParser()

	csvReport := "code,description,status\nP0420,Catalyst System Efficiency Below Threshold,stored\nP0171,System Too Lean Bank 1,active\nbogus,,\n"

	result := p.Parse([]byte(csvReport), "")

	if !result.Success {
		t.Fatalf("expected success, parse errors: %v", result.ParseErrors)
	}
	if len(result.FaultEntries) != 2 {
		t.Fatalf("expected 2 fault entries, got %d", len(result.FaultEntries))
	}
	if result.FaultEntries[0].Code != "P0420" {
		t.Fatalf("expected P0420, got %s", result.FaultEntries[0].Code)
	}
	if result.FaultEntries[0].Status != domain.FaultStatusStored {
		t.Fatalf("expected stored, got %s", result.FaultEntries[0].Status)
	}
	if len(result.ParseErrors) == 0 {
		t.Fatalf("expected a parse error for the bogus row")
	}
}

func TestParseXMLReport(t *testing.T) {
	p := NewParser()

	xmlReport := `<report>
  <vehicle><vin>JT2BF22K1W0123456</vin><mileage>98000</mileage></vehicle>
  <faults>
    <dtc code="P0301" status="active">Cylinder 1 Misfire Detected</dtc>
    <dtc code="C0035" status="pending">Left Front Wheel Speed Sensor</dtc>
  </faults>
</report>`

	result := p.Parse([]byte(xmlReport), "")

	if !result.Success {
		t.Fatalf("expected success, parse errors: %v", result.ParseErrors)
	}
	if len(result.FaultEntries) != 2 {
		t.Fatalf("expected 2 fault entries, got %d", len(result.FaultEntries))
	}
	if result.FaultEntries[1].Code != "C0035" || result.FaultEntries[1].Status != domain.FaultStatusPending {
		t.Fatalf("unexpected second entry: %+v", result.FaultEntries[1])
	}
	if result.VehicleInfo.VIN != "JT2BF22K1W0123456" {
		t.Fatalf("expected VIN from xml, got %q", result.VehicleInfo.VIN)
	}
	if result.VehicleInfo.Mileage != 98000 {
		t.Fatalf("expected mileage 98000, got %d", result.VehicleInfo.Mileage)
	}
}

func TestParsePartialExtraction(t *testing.T) {
	p := NewParser()

	report := "garbage line one\nP0505 Idle Control System Malfunction\nmore garbage"
	result := p.Parse([]byte(report), FormatText)

	if !result.Success {
		t.Fatalf("partial extraction should still succeed")
	}
	if len(result.FaultEntries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.FaultEntries))
	}
	if len(result.ParseErrors) != 2 {
		t.Fatalf("expected 2 parse errors, got %v", result.ParseErrors)
	}
}

func TestParseUnrecognizedContent(t *testing.T) {
	p := NewParser()

	result := p.Parse([]byte("nothing structured here at all"), FormatText)

	if result.Success {
		t.Fatalf("expected failure when no structured content extracted")
	}
	if len(result.ParseErrors) == 0 {
		t.Fatalf("expected parse errors to be recorded")
	}
}

func TestParseEmptyReport(t *testing.T) {
	p := NewParser()

	result := p.Parse([]byte("   \n  "), "")

	if result.Success {
		t.Fatalf("expected failure for empty report")
	}
}

func TestParseUnknownFormatHint(t *testing.T) {
	p := NewParser()

	result := p.Parse([]byte("P0301 Misfire"), "pdf")

	if result.Success {
		t.Fatalf("expected failure for unknown format hint")
	}
	if len(result.ParseErrors) != 1 || !strings.Contains(result.ParseErrors[0], "unrecognized report format") {
		t.Fatalf("expected format error, got %v", result.ParseErrors)
	}
}
