package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/omondijeff/errorlytic/internal/domain"
)

type stepTemplate struct {
	title      string
	detail     string
	stepType   string
	estMinutes int
}

type categoryPlan struct {
	steps []stepTemplate
	parts []domain.RequiredPart
	tools []string
}

var fallbackPlan = categoryPlan{
	steps: []stepTemplate{
		{title: "Inspect affected subsystem", detail: "Visually inspect wiring, connectors and components related to the fault codes.", stepType: domain.StepTypeCheck, estMinutes: 30},
		{title: "Replace faulty component", detail: "Replace the component identified during inspection.", stepType: domain.StepTypeReplace, estMinutes: 60},
		{title: "Clear codes and retest", detail: "Clear stored codes and road test to confirm the fault does not return.", stepType: domain.StepTypeRetest, estMinutes: 20},
	},
	tools: []string{"OBD-II scanner", "Socket set"},
}

var categoryPlans = map[string]categoryPlan{
	"Ignition System": {
		steps: []stepTemplate{
			{title: "Check spark plugs and coils", detail: "Remove and inspect spark plugs for wear and fouling; test coil resistance.", stepType: domain.StepTypeCheck, estMinutes: 40},
			{title: "Replace spark plugs", detail: "Fit new spark plugs gapped to specification; replace any failed coil.", stepType: domain.StepTypeReplace, estMinutes: 45},
			{title: "Retest for misfires", detail: "Clear codes and run the engine through idle and load to confirm smooth operation.", stepType: domain.StepTypeRetest, estMinutes: 20},
		},
		parts: []domain.RequiredPart{
			{Name: "Spark Plugs", OEMRef: "NGK-ILZKR7B", AltRefs: []string{"DENSO-SC20HR11", "BOSCH-FR7NPP"}, Quantity: 4, EstUnitCost: 2500},
			{Name: "Ignition Coil", OEMRef: "DENSO-673-1303", AltRefs: []string{"DELPHI-GN10328"}, Quantity: 1, EstUnitCost: 7500},
		},
		tools: []string{"OBD-II scanner", "Spark plug socket", "Torque wrench"},
	},
	"Fuel System": {
		steps: []stepTemplate{
			{title: "Check fuel pressure", detail: "Connect a fuel pressure gauge and compare against specification at idle and under load.", stepType: domain.StepTypeCheck, estMinutes: 30},
			{title: "Replace fuel filter and clean injectors", detail: "Fit a new fuel filter and run an injector cleaning cycle; replace injectors that fail the flow test.", stepType: domain.StepTypeReplace, estMinutes: 60},
			{title: "Retest fuel trims", detail: "Clear codes and confirm short and long term fuel trims settle within range.", stepType: domain.StepTypeRetest, estMinutes: 25},
		},
		parts: []domain.RequiredPart{
			{Name: "Fuel Filter", OEMRef: "TOYOTA-23300-75140", AltRefs: []string{"MAHLE-KL440"}, Quantity: 1, EstUnitCost: 3500},
			{Name: "Air Filter", OEMRef: "TOYOTA-17801-0L040", AltRefs: []string{"MANN-C26017"}, Quantity: 1, EstUnitCost: 2000},
		},
		tools: []string{"OBD-II scanner", "Fuel pressure gauge"},
	},
	"Emissions": {
		steps: []stepTemplate{
			{title: "Check oxygen sensors and exhaust", detail: "Inspect exhaust for leaks; check upstream and downstream O2 sensor readings.", stepType: domain.StepTypeCheck, estMinutes: 40},
			{title: "Replace catalytic converter or sensor", detail: "Replace the failed oxygen sensor, or the catalytic converter if efficiency is below threshold.", stepType: domain.StepTypeReplace, estMinutes: 90},
			{title: "Retest emissions readiness", detail: "Complete a full drive cycle and confirm all readiness monitors pass.", stepType: domain.StepTypeRetest, estMinutes: 40},
		},
		parts: []domain.RequiredPart{
			{Name: "Oxygen Sensor", OEMRef: "DENSO-234-9009", AltRefs: []string{"BOSCH-15717"}, Quantity: 1, EstUnitCost: 9000},
			{Name: "Catalytic Converter", OEMRef: "TOYOTA-25051", AltRefs: []string{"WALKER-16468"}, Quantity: 1, EstUnitCost: 45000},
		},
		tools: []string{"OBD-II scanner", "Oxygen sensor socket", "Exhaust gas analyzer"},
	},
	"Cooling System": {
		steps: []stepTemplate{
			{title: "Check coolant circuit", detail: "Pressure test the cooling system; verify thermostat opening temperature and fan operation.", stepType: domain.StepTypeCheck, estMinutes: 35},
			{title: "Replace thermostat and coolant", detail: "Fit a new thermostat, flush the system and refill with the specified coolant.", stepType: domain.StepTypeReplace, estMinutes: 50},
			{title: "Retest operating temperature", detail: "Run to operating temperature and confirm stable readings with no leaks.", stepType: domain.StepTypeRetest, estMinutes: 25},
		},
		parts: []domain.RequiredPart{
			{Name: "Thermostat", OEMRef: "TOYOTA-90916-03100", AltRefs: []string{"GATES-TH344"}, Quantity: 1, EstUnitCost: 3000},
			{Name: "Coolant", OEMRef: "TOYOTA-LLC-5L", AltRefs: []string{"PRESTONE-AF2100"}, Quantity: 2, EstUnitCost: 2200},
		},
		tools: []string{"Cooling system pressure tester", "Drain pan"},
	},
	"Brakes": {
		steps: []stepTemplate{
			{title: "Check brake components", detail: "Inspect pads, discs, lines and wheel speed sensors; measure pad and disc thickness.", stepType: domain.StepTypeCheck, estMinutes: 45},
			{title: "Replace worn brake parts", detail: "Replace pads or discs below specification and any damaged sensor.", stepType: domain.StepTypeReplace, estMinutes: 75},
			{title: "Retest braking and ABS", detail: "Bleed the system if opened, then road test braking and confirm no ABS codes return.", stepType: domain.StepTypeRetest, estMinutes: 30},
		},
		parts: []domain.RequiredPart{
			{Name: "Brake Pads", OEMRef: "TOYOTA-04465-02220", AltRefs: []string{"TRW-GDB3425"}, Quantity: 1, EstUnitCost: 6000},
			{Name: "Wheel Speed Sensor", OEMRef: "TOYOTA-89542-02100", AltRefs: []string{"DELPHI-SS20350"}, Quantity: 1, EstUnitCost: 5500},
		},
		tools: []string{"OBD-II scanner", "Brake caliper tool", "Torque wrench"},
	},
	"Transmission": {
		steps: []stepTemplate{
			{title: "Check transmission fluid and codes", detail: "Inspect fluid level and condition; read transmission-specific live data.", stepType: domain.StepTypeCheck, estMinutes: 40},
			{title: "Replace fluid and faulty solenoid", detail: "Service the transmission fluid and filter; replace any shift solenoid flagged by the codes.", stepType: domain.StepTypeReplace, estMinutes: 120},
			{title: "Retest shifting behavior", detail: "Road test through all gears and confirm shift quality with no codes returning.", stepType: domain.StepTypeRetest, estMinutes: 30},
		},
		parts: []domain.RequiredPart{
			{Name: "Transmission Fluid", OEMRef: "TOYOTA-WS-4L", AltRefs: []string{"AISIN-ATF6004"}, Quantity: 1, EstUnitCost: 8000},
			{Name: "Shift Solenoid", OEMRef: "AISIN-SAT011", AltRefs: []string{}, Quantity: 1, EstUnitCost: 12000},
		},
		tools: []string{"OBD-II scanner", "Transmission jack", "Fluid pump"},
	},
}

// Synthesizer converts an Analysis into an ordered repair walkthrough. Each
// distinct cause contributes a check/replace/retest sequence; step order is
// assigned sequentially across all causes so the result is always 1..N.
type Synthesizer struct{}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

func (s *Synthesizer) Synthesize(analysis domain.Analysis) domain.Walkthrough {
	now := time.Now().Unix()
	walkthrough := domain.Walkthrough{
		ID:         uuid.NewString(),
		AnalysisID: analysis.ID,
		Steps:      []domain.RepairStep{},
		Parts:      []domain.RequiredPart{},
		Tools:      []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	causes := analysis.Causes
	if len(causes) == 0 && len(analysis.DTCs) > 0 {
		causes = []string{categoryOther}
	}

	toolSet := map[string]bool{}
	replaceSteps := 0
	order := 1

	for _, cause := range causes {
		plan, ok := categoryPlans[cause]
		if !ok {
			plan = fallbackPlan
		}

		for _, tmpl := range plan.steps {
			title := tmpl.title
			if !ok {
				title = fmt.Sprintf("%s (%s)", tmpl.title, cause)
			}
			walkthrough.Steps = append(walkthrough.Steps, domain.RepairStep{
				Order:      order,
				Title:      title,
				Detail:     tmpl.detail,
				Type:       tmpl.stepType,
				EstMinutes: tmpl.estMinutes,
			})
			walkthrough.TotalMinutes += tmpl.estMinutes
			if tmpl.stepType == domain.StepTypeReplace {
				replaceSteps++
			}
			order++
		}

		walkthrough.Parts = append(walkthrough.Parts, plan.parts...)

		for _, tool := range plan.tools {
			if !toolSet[tool] {
				toolSet[tool] = true
				walkthrough.Tools = append(walkthrough.Tools, tool)
			}
		}
	}

	walkthrough.Difficulty = deriveDifficulty(analysis.DTCs, len(walkthrough.Steps), replaceSteps)

	return walkthrough
}

func deriveDifficulty(dtcs []domain.FaultEntry, totalSteps, replaceSteps int) string {
	highSeverity := 0
	for _, dtc := range dtcs {
		if dtc.Severity == domain.SeverityHigh {
			highSeverity++
		}
	}

	score := totalSteps + 2*replaceSteps + 3*highSeverity
	switch {
	case score >= 15:
		return domain.DifficultyHard
	case score >= 7:
		return domain.DifficultyMedium
	default:
		return domain.DifficultyEasy
	}
}
