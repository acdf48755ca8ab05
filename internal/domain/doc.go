// Package domain models a single anaemia screening submission: the inputs a
// clinician enters, the label an externally trained classifier assigns, and
// the advice and report derived from both.
//
// # Inputs
//
// Pixel percentages come from an upstream image-analysis step that measures
// the share of red, green, and blue pixels in a conjunctiva or blood smear
// photograph. They are independent measurements and are not required to sum
// to 100.
//
//	Sex:            "M" or "F", encoded for the model as M=0, F=1
//	%Red Pixel:     0–100
//	%Green pixel:   0–100
//	%Blue pixel:    0–100
//	Hb:             0–25 g/dL
//
// Out-of-range numbers are clamped into their range rather than rejected.
// See [NewPredictionRequest].
//
// # Model Schema
//
// The classifier consumes exactly five features, in this order:
//
//	Sex, %Red Pixel, %Green pixel, %Blue pixel, Hb
//
// Class 1 is anaemic, class 0 is not anaemic. Artifacts that declare a
// different feature order are refused at load time.
//
// # Advice Thresholds
//
// Tips are produced by a fixed, ordered rule list. Rules are independent; more
// than one can fire for the same submission:
//
//	Hb < 12 g/dL       iron-rich foods
//	%Green pixel > 40  hydration
//	Anaemic            doctor consultation, regular checkups, WHO fact sheet
//	Not anaemic        four general wellness tips, Mayo Clinic page
//
// The 12 g/dL cut-off is the WHO lower bound for non-pregnant adult women. It
// is applied to both sexes, matching the tips the screening page has always
// shown.
//
// # Location
//
// A submission may carry a free-text place ("Nairobi, Kenya") or an explicit
// coordinate pair. Free text goes through a [Geocoder]; failures only produce
// a warning. Explicit coordinates are never sent to the geocoder.
package domain
