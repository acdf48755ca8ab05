package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Report download metadata.
const (
	ReportFilename    = "anaemia_report.txt"
	ReportContentType = "text/plain; charset=utf-8"
)

// RenderReport serializes a request and its result into the plain-text
// report offered for download.
func RenderReport(req PredictionRequest, res PredictionResult) string {
	var b strings.Builder

	b.WriteString("Anaemia Prediction Report\n")
	b.WriteString("========================\n")
	fmt.Fprintf(&b, "Sex: %s\n", req.Sex)
	fmt.Fprintf(&b, "%%Red Pixel: %s\n", FormatNumber(req.RedPct))
	fmt.Fprintf(&b, "%%Green pixel: %s\n", FormatNumber(req.GreenPct))
	fmt.Fprintf(&b, "%%Blue pixel: %s\n", FormatNumber(req.BluePct))
	fmt.Fprintf(&b, "Hemoglobin (Hb): %s\n", FormatNumber(req.Hemoglobin))
	if !req.Location.IsZero() {
		fmt.Fprintf(&b, "Location: %s\n", req.Location)
	}
	fmt.Fprintf(&b, "Prediction: %s\n", res.Label)
	if res.Confidence != nil {
		fmt.Fprintf(&b, "Confidence: %s\n", FormatConfidence(*res.Confidence))
	}

	b.WriteString("\nHealth Tips:\n")
	for _, tip := range res.Tips {
		fmt.Fprintf(&b, "- %s\n", tip)
	}
	fmt.Fprintf(&b, "\n%s\n", res.ReferenceLink.Markdown())

	return b.String()
}

// FormatNumber prints a float with the shortest exact representation but
// always at least one decimal place: 10 -> "10.0", 45.25 -> "45.25".
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// FormatConfidence prints a [0,1] confidence as a percentage with one
// decimal place: 0.82 -> "82.0%".
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.1f%%", c*100)
}
