package batchrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/platecheck/internal/adapters/export"
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/pkg/logger"
)

const directoryPermission = 0750

// ErrNoImages is returned when the directory holds no supported image.
var ErrNoImages = errors.New("no images found")

// Processor runs images through the recognition pipeline in order.
type Processor interface {
	ProcessBatch(ctx context.Context, images []model.Image, tier model.ModelTier) ([]*model.ComparisonRecord, error)
}

// TierResolver maps the premium password to a tier.
type TierResolver interface {
	Tier(password string) (model.ModelTier, error)
}

// Run executes a complete batch run: scan, process, print, export. When
// processing stops early the records produced so far are still exported.
func Run(ctx context.Context, config *Config, p Processor, tiers TierResolver, out io.Writer) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("batchrun")

	tier, err := tiers.Tier(config.PremiumPassword)
	if err != nil {
		return stats, fmt.Errorf("resolve tier: %w", err)
	}

	images, err := Scan(config.Dir)
	if err != nil {
		return stats, err
	}
	if len(images) == 0 {
		return stats, fmt.Errorf("%w in %s", ErrNoImages, config.Dir)
	}
	log.Info(ctx, "starting batch run",
		logger.String("dir", config.Dir),
		logger.Int("images", len(images)),
		logger.String("tier", tier.String()),
	)

	records, runErr := p.ProcessBatch(ctx, images, tier)
	for _, rec := range records {
		tally(stats, rec)
		printRecord(out, rec, config.Verbose)
	}

	stats.Output = config.Output
	if stats.Output == "" {
		stats.Output = export.FileName(time.Now())
	}
	if err := writeExport(stats.Output, records); err != nil {
		return stats, errors.Join(runErr, err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if runErr != nil {
		return stats, fmt.Errorf("batch stopped after %d of %d images: %w", len(records), len(images), runErr)
	}
	return stats, nil
}

func tally(stats *Stats, rec *model.ComparisonRecord) {
	stats.Images++
	switch rec.Consistency() {
	case model.Consistent:
		stats.Consistent++
	case model.Inconsistent:
		stats.Inconsistent++
	default:
		stats.Indeterminate++
	}
	if !rec.VehicleDetected() {
		stats.NoVehicle++
	}
	if rec.AllFailed() {
		stats.AllFailed++
	}
}

func printRecord(out io.Writer, rec *model.ComparisonRecord, verbose bool) {
	row := rec.ExportRow()
	fmt.Fprintf(out, "%s\tA=%s\tB=%s\tOCR=%s\t%s\n",
		row.FileName,
		orDash(row.PlateFocus.ValueOrZero()),
		orDash(row.DamageFocus.ValueOrZero()),
		orDash(row.PrecisionOCR.ValueOrZero()),
		row.Consistency,
	)
	if !verbose {
		return
	}
	for _, o := range rec.Outcomes() {
		fmt.Fprintf(out, "\t%s: %s %s\n", o.Source(), o.Status(), o.Message())
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeExport(path string, records []*model.ComparisonRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := export.WriteCSV(file, records); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var imagesPerSecond float64
	if stats.Duration > 0 {
		imagesPerSecond = float64(stats.Images) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("images", stats.Images),
		logger.Int("consistent", stats.Consistent),
		logger.Int("inconsistent", stats.Inconsistent),
		logger.Int("indeterminate", stats.Indeterminate),
		logger.Int("noVehicle", stats.NoVehicle),
		logger.Int("allFailed", stats.AllFailed),
		logger.String("output", stats.Output),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("imagesPerSecond", imagesPerSecond))
}
