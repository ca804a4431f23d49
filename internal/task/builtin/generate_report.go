package builtin

import (
	"context"
	"errors"
	"strings"

	"github.com/RezaEskandarii/cronfire/internal/task"
	"github.com/RezaEskandarii/cronfire/types"
	"github.com/rs/zerolog"
)

type GenerateReportArgs struct {
	ReportType string         `json:"report_type"`
	Filters    map[string]any `json:"filters"`
	Iterations *int           `json:"iterations"`
}

func (a GenerateReportArgs) Validate() error {
	if strings.TrimSpace(a.ReportType) == "" {
		return errors.New("report_type must be a non-empty string")
	}
	if a.Filters == nil {
		return errors.New("filters must be a mapping")
	}
	if a.Iterations != nil && *a.Iterations <= 0 {
		return errors.New("iterations must be positive")
	}
	return nil
}

// GenerateReport simulates a CPU-bound report build, logging progress at every quarter.
func GenerateReport(opts Options) task.Handler {
	opts = opts.withDefaults()
	return task.New(GenerateReportTask, []string{"report_type", "filters", "iterations"}, func(ctx context.Context, in GenerateReportArgs) (types.TaskResult, error) {
		log := zerolog.Ctx(ctx)
		total := opts.ReportIterations
		if in.Iterations != nil {
			total = *in.Iterations
		}
		log.Info().Str("report_type", in.ReportType).Interface("filters", in.Filters).Int("iterations", total).Msg("generating report")

		checksum := crunch(ctx, total, func(percent int) {
			log.Info().Str("report_type", in.ReportType).Int("progress", percent).Msg("report progress")
		})
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sleep(ctx, opts.ReportPause())
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Info().Str("report_type", in.ReportType).Uint64("checksum", checksum).Msg("report generated")
		return types.TaskResult{
			"status":      "success",
			"report_type": in.ReportType,
			"row":         opts.RowCount(),
		}, nil
	})
}

// crunch runs total iterations and calls progress at 0, 25, 50 and 75 percent.
// It stops early when ctx is done.
func crunch(ctx context.Context, total int, progress func(percent int)) uint64 {
	quarter := max(total/4, 1)
	var acc uint64
	for i := 0; i < total; i++ {
		if i%quarter == 0 {
			if ctx.Err() != nil {
				return acc
			}
			if pct := i * 100 / total; pct < 100 {
				progress(pct)
			}
		}
		acc = acc*31 + uint64(i)
	}
	return acc
}
