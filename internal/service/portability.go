package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
)

const ExportVersion = 1

// errDryRun rolls back the import transaction after everything was written.
var errDryRun = errors.New("dry run")

// ExportData is the portable JSON document. The estimate cache is never part
// of it.
type ExportData struct {
	Version    int                 `json:"version"`
	ExportedAt time.Time           `json:"exportedAt"`
	Settings   *model.Settings     `json:"settings"`
	Logs       []model.DayLog      `json:"logs"`
	Weight     []model.WeightEntry `json:"weight"`
}

type ImportMode string

const (
	ImportModeOverwrite ImportMode = "overwrite"
	ImportModeMerge     ImportMode = "merge"
)

func ParseImportMode(value string) (ImportMode, error) {
	switch m := ImportMode(strings.ToLower(strings.TrimSpace(value))); m {
	case ImportModeOverwrite, ImportModeMerge:
		return m, nil
	}
	return "", invalid("mode", "must be one of: overwrite, merge")
}

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
}

type ImportReport struct {
	Mode            ImportMode `json:"mode"`
	DryRun          bool       `json:"dryRun,omitempty"`
	SettingsWritten bool       `json:"settingsWritten"`
	LogsWritten     int        `json:"logsWritten"`
	LogsSkipped     int        `json:"logsSkipped"`
	WeightsWritten  int        `json:"weightsWritten"`
}

func ExportSnapshot(ctx context.Context, st *store.Store, now time.Time) (*ExportData, error) {
	settings, err := GetSettings(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	logs, err := LogsInRange(ctx, st, "", "")
	if err != nil {
		return nil, fmt.Errorf("export logs: %w", err)
	}
	weights, err := ListWeights(ctx, st, "", "")
	if err != nil {
		return nil, fmt.Errorf("export weight: %w", err)
	}
	return &ExportData{
		Version:    ExportVersion,
		ExportedAt: now.UTC(),
		Settings:   &settings,
		Logs:       logs,
		Weight:     weights,
	}, nil
}

func WriteExport(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

func ReadExport(r io.Reader) (*ExportData, error) {
	var data ExportData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, invalid("", "import file is not valid JSON: %v", err)
	}
	if err := ValidateExport(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func ValidateExport(data *ExportData) error {
	if data == nil {
		return invalid("", "import data is empty")
	}
	if data.Version != ExportVersion {
		return invalid("version", "unsupported export version %d (expected %d)", data.Version, ExportVersion)
	}
	if data.Settings == nil {
		return invalid("settings", "is required")
	}
	if data.Logs == nil {
		return invalid("logs", "is required")
	}
	for _, d := range data.Logs {
		if _, err := ParseDate(d.Date); err != nil {
			return invalid("logs", "day %q has no valid date", d.Date)
		}
	}
	for _, w := range data.Weight {
		if err := validateStruct(w); err != nil {
			return fmt.Errorf("weight %s: %w", w.Date, err)
		}
	}
	return nil
}

// ImportSnapshot writes data inside a single transaction. Overwrite clears
// every collection first. Merge keeps days that already have entries and
// overwrites settings and weights.
func ImportSnapshot(ctx context.Context, st *store.Store, data *ExportData, opts ImportOptions) (ImportReport, error) {
	if opts.Mode == "" {
		opts.Mode = ImportModeMerge
	}
	if _, err := ParseImportMode(string(opts.Mode)); err != nil {
		return ImportReport{}, err
	}
	if err := ValidateExport(data); err != nil {
		return ImportReport{}, err
	}

	report := ImportReport{Mode: opts.Mode, DryRun: opts.DryRun}
	err := st.WithTx(ctx, func(tx *store.Store) error {
		if opts.Mode == ImportModeOverwrite {
			if err := tx.Settings.Clear(ctx); err != nil {
				return err
			}
			if err := tx.Logs.Clear(ctx); err != nil {
				return err
			}
			if err := tx.Weight.Clear(ctx); err != nil {
				return err
			}
			if err := tx.Cache.Clear(ctx); err != nil {
				return err
			}
		}

		if err := tx.Settings.Put(ctx, store.SettingsKey, *data.Settings); err != nil {
			return fmt.Errorf("import settings: %w", err)
		}
		report.SettingsWritten = true

		for _, d := range data.Logs {
			d.EnsureBuckets()
			if opts.Mode == ImportModeMerge {
				existing, ok, err := tx.Logs.Get(ctx, d.Date)
				if err != nil {
					return fmt.Errorf("import logs %s: %w", d.Date, err)
				}
				if ok && !existing.IsEmpty() {
					report.LogsSkipped++
					continue
				}
			}
			if err := tx.Logs.Put(ctx, d.Date, d); err != nil {
				return fmt.Errorf("import logs %s: %w", d.Date, err)
			}
			report.LogsWritten++
		}

		for _, w := range data.Weight {
			if err := tx.Weight.Put(ctx, w.Date, w); err != nil {
				return fmt.Errorf("import weight %s: %w", w.Date, err)
			}
			report.WeightsWritten++
		}

		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return ImportReport{}, err
	}
	return report, nil
}
