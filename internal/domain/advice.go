package domain

import "fmt"

// ReferenceLink points the reader at further information.
type ReferenceLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Markdown renders the link as it appears in the report.
func (l ReferenceLink) Markdown() string {
	return fmt.Sprintf("[%s](%s)", l.Title, l.URL)
}

var (
	WHOAnaemiaLink = ReferenceLink{
		Title: "Learn more about anaemia (WHO)",
		URL:   "https://www.who.int/news-room/fact-sheets/detail/anaemia",
	}
	GeneralHealthLink = ReferenceLink{
		Title: "General health tips (Mayo Clinic)",
		URL:   "https://www.mayoclinic.org/healthy-lifestyle",
	}
)

const (
	TipIronRichFoods  = "Increase iron-rich foods (spinach, beans, red meat)."
	TipStayHydrated   = "Stay hydrated; high green pixel may indicate plasma presence."
	TipConsultDoctor  = "Consult your doctor for supplements if needed."
	TipRegularCheckup = "Get regular checkups."
	TipBalancedDiet   = "Maintain a balanced diet."
	TipExercise       = "Exercise regularly."
	TipSleep          = "Get enough sleep."
	TipHealthCheckups = "Have regular health checkups."
)

type adviceRule struct {
	applies func(PredictionRequest, Label) bool
	tips    []string
	link    *ReferenceLink
}

// adviceRules is evaluated top to bottom; order only affects display order.
var adviceRules = []adviceRule{
	{
		applies: func(r PredictionRequest, _ Label) bool { return r.Hemoglobin < AnaemiaHbCutoff },
		tips:    []string{TipIronRichFoods},
	},
	{
		applies: func(r PredictionRequest, _ Label) bool { return r.GreenPct > HighGreenPct },
		tips:    []string{TipStayHydrated},
	},
	{
		applies: func(_ PredictionRequest, l Label) bool { return l == LabelAnaemic },
		tips:    []string{TipConsultDoctor, TipRegularCheckup},
		link:    &WHOAnaemiaLink,
	},
	{
		applies: func(_ PredictionRequest, l Label) bool { return l == LabelNotAnaemic },
		tips:    []string{TipBalancedDiet, TipExercise, TipSleep, TipHealthCheckups},
		link:    &GeneralHealthLink,
	},
}

// Advise derives the ordered tip list and reference link for a prediction.
func Advise(req PredictionRequest, label Label) ([]string, ReferenceLink) {
	var (
		tips []string
		link ReferenceLink
	)
	for _, rule := range adviceRules {
		if !rule.applies(req, label) {
			continue
		}
		tips = append(tips, rule.tips...)
		if rule.link != nil {
			link = *rule.link
		}
	}
	return tips, link
}

// PredictionResult is everything derived from one classification.
type PredictionResult struct {
	Label         Label         `json:"label"`
	Confidence    *float64      `json:"confidence,omitempty"`
	Tips          []string      `json:"tips"`
	ReferenceLink ReferenceLink `json:"reference_link"`
}

// NewPredictionResult applies the advisory rules to a model output.
func NewPredictionResult(req PredictionRequest, label Label, confidence *float64) PredictionResult {
	tips, link := Advise(req, label)
	return PredictionResult{
		Label:         label,
		Confidence:    confidence,
		Tips:          tips,
		ReferenceLink: link,
	}
}
