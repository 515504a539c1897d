// Command salesreport summarizes sales exports without running the server.
//
//	salesreport [flags] file-or-dir...
//
// JSON output goes to -out (stdout by default); several inputs produce an
// object keyed by file name. CSV and XLSX output go into the -out directory,
// except that a single XLSX workbook is streamed to stdout with -out -.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/internal/files"
	"salespulse/internal/infrastructure"
	"salespulse/internal/services"
	"salespulse/internal/validation"
	"salespulse/pkg/contracts"
	"salespulse/pkg/contracts/domain"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errDuplicateInput marks two inputs that would share an output key
var errDuplicateInput = errors.New("duplicate input name")

// profileList collects a repeatable -profile flag
type profileList []string

func (p *profileList) String() string {
	return strings.Join(*p, ",")
}

func (p *profileList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

type options struct {
	skipRows    int
	form        domain.FilterForm
	format      exporter.Format
	out         string
	concurrency int
	latest      bool
	logLevel    string
	version     bool
	inputs      []string
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("salesreport", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts     options
		profiles profileList
		format   string
	)
	fs.IntVar(&opts.skipRows, "skip-rows", -1, "lines before the header row (default from config)")
	fs.StringVar(&opts.form.StartDate, "start-date", "", "keep rows on or after YYYY-MM-DD")
	fs.StringVar(&opts.form.EndDate, "end-date", "", "keep rows on or before YYYY-MM-DD")
	fs.Var(&profiles, "profile", "keep rows with this profile (repeatable)")
	fs.StringVar(&opts.form.MinPrice, "min-price", "", "keep rows priced at least this much")
	fs.StringVar(&opts.form.MaxPrice, "max-price", "", "keep rows priced at most this much")
	fs.StringVar(&format, "format", string(exporter.FormatJSON), "output format: json, csv or xlsx")
	fs.StringVar(&opts.out, "out", "", "output file for json (default stdout) or directory for csv/xlsx (default .)")
	fs.IntVar(&opts.concurrency, "concurrency", 4, "files processed in parallel")
	fs.BoolVar(&opts.latest, "latest", false, "only process the most recently modified export")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (default from config)")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.version {
		return &opts, nil
	}

	f, err := exporter.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	opts.format = f
	opts.form.Profiles = profiles

	if opts.concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", opts.concurrency)
	}

	opts.inputs = fs.Args()
	if len(opts.inputs) == 0 {
		fs.Usage()
		return nil, errors.New("no input files")
	}

	return &opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "salesreport:", err)
		}
		return exitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "salesreport:", err)
		return exitError
	}
	if opts.skipRows >= 0 {
		cfg.Ingest.SkipRows = opts.skipRows
	}
	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	logger := infrastructure.WithComponent(
		infrastructure.LoggerWithContext(ctx, infrastructure.NewLogger(stderr, level)), "salesreport")

	svc, err := newReportService(cfg, logger)
	if err != nil {
		infrastructure.WithError(logger, err).Error("Failed to initialize report service")
		return exitError
	}

	validator := validation.NewFileValidator(logger, cfg.Upload.AllowedExtensions...)
	inputs, err := resolveInputs(cfg, validator, logger, opts)
	if err != nil {
		infrastructure.WithError(logger, err).Error("Failed to resolve inputs")
		if errors.Is(err, errDuplicateInput) {
			return exitUsage
		}
		return exitError
	}
	if len(inputs) == 0 {
		logger.Error("No export files found", slog.Any("inputs", opts.inputs))
		return exitError
	}

	if err := summarize(ctx, svc, exporter.NewReportExporter(logger), validator, inputs, opts, stdout); err != nil {
		infrastructure.WithError(logger, err).Error("Report failed")
		return exitError
	}
	return exitOK
}

// resolveInputs expands directories, rejects files that are not readable
// exports, applies -latest and refuses inputs whose outputs would collide
func resolveInputs(cfg *config.Config, v *validation.FileValidator, logger *slog.Logger, opts *options) ([]files.FileInfo, error) {
	inputs, err := files.NewDiscovery(cfg.Upload.AllowedExtensions...).Expand(opts.inputs)
	if err != nil {
		return nil, err
	}

	for _, in := range inputs {
		if err := v.ValidateExportFile(in.Path); err != nil {
			return nil, err
		}
	}

	if opts.latest {
		if latest, ok := files.GetLatestFile(inputs); ok {
			logger.Info("Using latest export", slog.String("file", latest.Name))
			return []files.FileInfo{latest}, nil
		}
	}

	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		key := outputKey(in.Name, opts.format)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write %q", errDuplicateInput, prev, in.Path, key)
		}
		seen[key] = in.Path
	}
	return inputs, nil
}

// outputKey is the JSON key (the file name) or, for csv/xlsx, the file
// prefix an input is written under
func outputKey(name string, format exporter.Format) string {
	if format == exporter.FormatJSON {
		return name
	}
	return baseName(name)
}

func newReportService(cfg *config.Config, logger *slog.Logger) (*services.ReportService, error) {
	parseOpts, err := cfg.ParseOptions()
	if err != nil {
		return nil, err
	}
	weeks, err := cfg.WeekNumbering()
	if err != nil {
		return nil, err
	}

	return services.NewReportService(
		files.NewManager(cfg.Upload.TempDir, logger),
		validation.NewUploadValidator(cfg.Upload.AllowedExtensions, cfg.Upload.MaxBytes, logger),
		dataprocessing.NewParser(logger, parseOpts),
		dataprocessing.NewAnalyzer(logger, weeks),
		logger,
	), nil
}

// summarize runs each input through its own pipeline, at most
// opts.concurrency at a time, then writes the results in input order
func summarize(
	ctx context.Context,
	svc *services.ReportService,
	exp *exporter.ReportExporter,
	validator *validation.FileValidator,
	inputs []files.FileInfo,
	opts *options,
	stdout io.Writer,
) error {
	reports := make([]*domain.Report, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			report, err := svc.ProcessFile(gctx, in.Path, opts.form)
			if err != nil {
				return fmt.Errorf("%s: %w", in.Name, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	switch opts.format {
	case exporter.FormatCSV:
		dir, err := outDir(opts.out, validator)
		if err != nil {
			return err
		}
		for i, in := range inputs {
			if _, err := exp.ExportCSV(reports[i], dir, baseName(in.Name)); err != nil {
				return err
			}
		}
		return nil

	case exporter.FormatXLSX:
		if opts.out == "-" {
			if len(reports) != 1 {
				return fmt.Errorf("-out - streams a single workbook, got %d inputs", len(reports))
			}
			return exp.WriteXLSX(reports[0], stdout)
		}
		dir, err := outDir(opts.out, validator)
		if err != nil {
			return err
		}
		for i, in := range inputs {
			if err := exp.ExportXLSX(reports[i], filepath.Join(dir, baseName(in.Name)+".xlsx")); err != nil {
				return err
			}
		}
		return nil

	default:
		return writeJSON(ctx, svc, exp, inputs, reports, opts.out, stdout)
	}
}

func writeJSON(
	ctx context.Context,
	svc *services.ReportService,
	exp *exporter.ReportExporter,
	inputs []files.FileInfo,
	reports []*domain.Report,
	out string,
	stdout io.Writer,
) error {
	payloads := make(map[string]interface{}, len(reports))
	var single map[string]interface{}
	for i, report := range reports {
		payload, err := svc.Normalize(ctx, report)
		if err != nil {
			return fmt.Errorf("%s: %w", inputs[i].Name, err)
		}
		payloads[inputs[i].Name] = payload
		single = payload
	}

	var doc interface{} = payloads
	if len(reports) == 1 {
		doc = single
	}

	if out == "" || out == "-" {
		return exp.WriteJSON(doc, stdout)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := exp.WriteJSON(doc, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// outDir resolves the csv/xlsx output directory and checks it is writable
func outDir(out string, v *validation.FileValidator) (string, error) {
	dir := out
	if dir == "" {
		dir = "."
	}
	if err := v.ValidateOutputDirectory(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
