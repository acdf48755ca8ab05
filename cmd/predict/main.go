// Command predict runs a single anaemia prediction from flags and prints the
// plain-text report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/anaemia-predictor/internal/adapter/geocoding"
	"github.com/couchcryptid/anaemia-predictor/internal/config"
	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/couchcryptid/anaemia-predictor/internal/model"
	"github.com/couchcryptid/anaemia-predictor/internal/observability"
	"github.com/couchcryptid/anaemia-predictor/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

type options struct {
	sex       string
	red       float64
	green     float64
	blue      float64
	hb        float64
	location  string
	lat       float64
	lon       float64
	modelPath string
	out       string
	asJSON    bool
	noGeocode bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := domain.DefaultSubmission()
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict anaemia status from blood image features and hemoglobin",
		Long: `predict classifies one patient record with the configured model and
prints the downloadable report. Location lookup uses the same GEOCODER
settings as the server; pass --no-geocode to skip it.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.sex, "sex", defaults.Sex, "sex: M or F")
	f.Float64Var(&opts.red, "red", defaults.RedPct, "percentage of red pixels in image (0-100)")
	f.Float64Var(&opts.green, "green", defaults.GreenPct, "percentage of green pixels in image (0-100)")
	f.Float64Var(&opts.blue, "blue", defaults.BluePct, "percentage of blue pixels in image (0-100)")
	f.Float64Var(&opts.hb, "hb", defaults.Hemoglobin, "hemoglobin level in g/dL (0-25)")
	f.StringVar(&opts.location, "location", "", "country and/or city, e.g. \"Nairobi, Kenya\"")
	f.Float64Var(&opts.lat, "lat", 0, "latitude (-90 to 90)")
	f.Float64Var(&opts.lon, "lon", 0, "longitude (-180 to 180)")
	f.StringVar(&opts.modelPath, "model", "", "model artifact path (default $MODEL_PATH)")
	f.StringVarP(&opts.out, "out", "o", "", "write the report to this file instead of stdout")
	f.BoolVar(&opts.asJSON, "json", false, "print the full outcome as JSON")
	f.BoolVar(&opts.noGeocode, "no-geocode", false, "do not look up --location")

	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("location", "lat")
	cmd.MarkFlagsMutuallyExclusive("location", "lon")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.modelPath != "" {
		cfg.ModelPath = opts.modelPath
	}
	if opts.noGeocode {
		cfg.Geocoder = config.GeocoderNone
	}

	logger := observability.NewLogger(cfg.LogLevel, "auto", cmd.ErrOrStderr())
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	geocoder, err := geocoding.New(cfg, logger, metrics)
	if err != nil {
		return err
	}
	p := pipeline.New(model.NewFileSource(cfg.ModelPath, logger, metrics), geocoder, nil, logger, metrics)

	sub := domain.Submission{
		Sex:          opts.sex,
		RedPct:       opts.red,
		GreenPct:     opts.green,
		BluePct:      opts.blue,
		Hemoglobin:   opts.hb,
		LocationText: opts.location,
	}
	if cmd.Flags().Changed("lat") {
		sub.Latitude, sub.Longitude = &opts.lat, &opts.lon
	}

	out, err := p.Run(cmd.Context(), sub)
	if err != nil {
		return err
	}
	for _, w := range out.Warnings() {
		logger.Warn(w)
	}

	dst := cmd.OutOrStdout()
	if opts.out != "" {
		file, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer file.Close()
		dst = file
	}
	if err := write(dst, out, opts.asJSON); err != nil {
		return err
	}
	if opts.out != "" {
		logger.Info("report written", "path", opts.out)
	}
	return nil
}

func write(w io.Writer, out pipeline.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	_, err := io.WriteString(w, out.Report)
	return err
}
