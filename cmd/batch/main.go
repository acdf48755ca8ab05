// Command batch runs the prediction pipeline over every row of a CSV file and
// writes the outcomes as a JSON fixture. It uses the same model source,
// geocoder and report rendering as the server, so its output matches what the
// page would show for each row.
//
// Usage:
//
//	go run ./cmd/batch \
//	  -csv data/patients.csv \
//	  -out data/predictions.json
//
// The CSV header names the form fields: Sex, %Red Pixel, %Green pixel,
// %Blue pixel, Hb, and optionally Location, Latitude and Longitude. Empty
// numeric cells take the form defaults.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/couchcryptid/anaemia-predictor/internal/adapter/geocoding"
	"github.com/couchcryptid/anaemia-predictor/internal/config"
	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/couchcryptid/anaemia-predictor/internal/model"
	"github.com/couchcryptid/anaemia-predictor/internal/observability"
	"github.com/couchcryptid/anaemia-predictor/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	_ "go.uber.org/automaxprocs"
)

// Optional columns. The required ones are domain.FeatureNames.
const (
	colLocation  = "Location"
	colLatitude  = "Latitude"
	colLongitude = "Longitude"
)

type predictor interface {
	Run(ctx context.Context, sub domain.Submission) (pipeline.Outcome, error)
}

// row is one parsed CSV line. Err is set when the line could not be turned
// into a submission; it is reported in the output, not fatal.
type row struct {
	Line int
	Sub  domain.Submission
	Err  error
}

// record is one row of the output fixture. Exactly one of Outcome and Error
// is set.
type record struct {
	Row     int               `json:"row"`
	Outcome *pipeline.Outcome `json:"outcome,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "CSV file of form submissions")
	out := flag.String("out", "", "output path for the JSON outcomes")
	modelPath := flag.String("model", "", "model artifact path (default $MODEL_PATH)")
	noGeocode := flag.Bool("no-geocode", false, "do not look up Location cells")
	flag.Parse()

	if *csvPath == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -out")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}
	if *noGeocode {
		cfg.Geocoder = config.GeocoderNone
	}

	logger := observability.NewLogger(cfg.LogLevel, "auto", os.Stderr)
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	geocoder, err := geocoding.New(cfg, logger, metrics)
	if err != nil {
		return err
	}
	p := pipeline.New(model.NewFileSource(cfg.ModelPath, logger, metrics), geocoder, nil, logger, metrics)

	rows, err := readCSV(*csvPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *csvPath, err)
	}
	log.Printf("%s: %d rows", *csvPath, len(rows))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := predictAll(ctx, p, rows)
	if err != nil {
		return err
	}
	if err := writeJSON(*out, records); err != nil {
		return fmt.Errorf("writing outcomes: %w", err)
	}
	log.Printf("wrote outcomes: %s", *out)

	printStats(os.Stdout, records)
	return nil
}

func readCSV(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return readSubmissions(f)
}

// readSubmissions fails only for problems with the file as a whole. A bad
// cell makes that row an error row.
func readSubmissions(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	lines, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range lines[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range domain.FeatureNames {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	rows := make([]row, 0, len(lines)-1)
	for n, line := range lines[1:] {
		sub, err := parseRow(line, colIdx)
		rows = append(rows, row{Line: n + 2, Sub: sub, Err: err})
	}
	return rows, nil
}

func get(cells []string, colIdx map[string]int, col string) string {
	i, ok := colIdx[col]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func parseRow(cells []string, colIdx map[string]int) (domain.Submission, error) {
	sub := domain.DefaultSubmission()
	if s := get(cells, colIdx, "Sex"); s != "" {
		sub.Sex = s
	}

	numeric := []struct {
		col string
		dst *float64
	}{
		{"%Red Pixel", &sub.RedPct},
		{"%Green pixel", &sub.GreenPct},
		{"%Blue pixel", &sub.BluePct},
		{"Hb", &sub.Hemoglobin},
	}
	for _, n := range numeric {
		raw := get(cells, colIdx, n.col)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Submission{}, fmt.Errorf("%s: %q is not a number", n.col, raw)
		}
		*n.dst = v
	}

	sub.LocationText = get(cells, colIdx, colLocation)

	lat, lon := get(cells, colIdx, colLatitude), get(cells, colIdx, colLongitude)
	if lat == "" && lon == "" {
		return sub, nil
	}
	// A half pair is passed through so the pipeline rejects it like any
	// other invalid submission.
	if lat != "" {
		v, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return domain.Submission{}, fmt.Errorf("%s: %q is not a number", colLatitude, lat)
		}
		sub.Latitude = &v
	}
	if lon != "" {
		v, err := strconv.ParseFloat(lon, 64)
		if err != nil {
			return domain.Submission{}, fmt.Errorf("%s: %q is not a number", colLongitude, lon)
		}
		sub.Longitude = &v
	}
	return sub, nil
}

// predictAll runs rows in order. Invalid rows are recorded and skipped; any
// other failure (the model going missing, cancellation) stops the batch.
func predictAll(ctx context.Context, p predictor, rows []row) ([]record, error) {
	records := make([]record, 0, len(rows))
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := record{Row: r.Line}
		if r.Err != nil {
			rec.Error = fmt.Errorf("%w: %w", domain.ErrInvalidInput, r.Err).Error()
			records = append(records, rec)
			continue
		}
		out, err := p.Run(ctx, r.Sub)
		switch {
		case err == nil:
			rec.Outcome = &out
		case errors.Is(err, domain.ErrInvalidInput):
			rec.Error = err.Error()
		default:
			return nil, fmt.Errorf("row %d: %w", rec.Row, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(w io.Writer, records []record) {
	labels := map[string]int{}
	sources := map[string]int{}
	var invalid, warned int
	for i := range records {
		r := &records[i]
		if r.Outcome == nil {
			invalid++
			continue
		}
		labels[r.Outcome.Result.Label.String()]++
		sources[r.Outcome.Location.Source]++
		if len(r.Outcome.Warnings()) > 0 {
			warned++
		}
	}

	fmt.Fprintf(w, "\nRows: %d\n", len(records))
	fmt.Fprintf(w, "Invalid: %d\n", invalid)
	fmt.Fprintf(w, "With warnings: %d\n", warned)

	fmt.Fprintf(w, "\nPredictions:\n")
	for _, k := range sortedKeys(labels) {
		fmt.Fprintf(w, "  %s: %d\n", k, labels[k])
	}
	fmt.Fprintf(w, "\nLocation sources:\n")
	for _, k := range sortedKeys(sources) {
		fmt.Fprintf(w, "  %s: %d\n", k, sources[k])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
