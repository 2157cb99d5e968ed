// Package pipeline runs the dataset operations the way the command line
// presents them: each step on a fresh store, reporting progress through the
// logger and returning domain errors for the caller to report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/conneroisu/wmnctl/internal/canonical"
	"github.com/conneroisu/wmnctl/internal/config"
	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/integrity"
	"github.com/conneroisu/wmnctl/internal/logging"
	"github.com/conneroisu/wmnctl/internal/store"
	"github.com/conneroisu/wmnctl/internal/validation"
)

// Runner executes format, hash and validate against the configured files.
type Runner struct {
	config *config.Config
	fs     afero.Fs
	out    io.Writer
	logger logging.Logger
}

// New returns a Runner. out receives machine-readable reports; a nil fs
// means the OS filesystem and a nil logger discards output.
func New(cfg *config.Config, fs afero.Fs, out io.Writer, logger logging.Logger) *Runner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Runner{config: cfg, fs: fs, out: out, logger: logger}
}

// WithLogger returns a copy of r logging through l.
func (r *Runner) WithLogger(l logging.Logger) *Runner {
	c := *r
	c.logger = l
	return &c
}

func (r *Runner) newStore() *store.Store {
	return store.New(r.fs, r.config.Files.Data, r.config.Files.Schema, store.WithLogger(r.logger))
}

// FormatResult reports which files the format step rewrote.
type FormatResult struct {
	DataChanged   bool `json:"data_changed"`
	SchemaChanged bool `json:"schema_changed"`
}

// Changed reports whether either file was rewritten.
func (fr *FormatResult) Changed() bool {
	return fr.DataChanged || fr.SchemaChanged
}

// Format canonicalizes the dataset, then the schema.
func (r *Runner) Format(ctx context.Context) (*FormatResult, error) {
	logger := r.logger.WithComponent("format")
	st := r.newStore()
	f := canonical.New(st, canonical.WithIndent(r.config.Format.Indent), canonical.WithLogger(r.logger))

	result := &FormatResult{}

	changed, err := formatOne(st, store.Data, f.FormatData, f)
	if err != nil {
		return nil, err
	}
	result.DataChanged = changed
	logger.Info(ctx, fmt.Sprintf("%s %s", filepath.Base(st.DataPath()), formatStatus(changed)))

	changed, err = formatOne(st, store.Schema, f.FormatSchema, f)
	if err != nil {
		return nil, err
	}
	result.SchemaChanged = changed
	logger.Info(ctx, fmt.Sprintf("%s %s", filepath.Base(st.SchemaPath()), formatStatus(changed)))

	if result.Changed() {
		logger.Info(ctx, "JSON files updated and formatted successfully")
	} else {
		logger.Info(ctx, "JSON files are already formatted")
	}
	return result, nil
}

func formatOne(st *store.Store, kind store.FileKind, format func() (string, error), f *canonical.Formatter) (bool, error) {
	raw, err := st.Raw(kind)
	if err != nil {
		return false, err
	}
	return f.FormatFile(format, raw, st.Path(kind))
}

func formatStatus(changed bool) string {
	if changed {
		return "updated and formatted"
	}
	return "already formatted"
}

// Hash refreshes the digest file of the dataset, then the schema.
func (r *Runner) Hash(ctx context.Context) ([]integrity.Result, error) {
	logger := r.logger.WithComponent("hash")
	st := r.newStore()
	h, err := integrity.New(st, integrity.WithAlgorithm(r.config.Hash.Algorithm), integrity.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}

	results := make([]integrity.Result, 0, 2)
	for _, kind := range []store.FileKind{store.Data, store.Schema} {
		raw, err := st.Raw(kind)
		if err != nil {
			return nil, err
		}
		result, err := h.UpdateHashFile(st.Path(kind), raw)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	changed := false
	for _, result := range results {
		name := filepath.Base(result.File)
		switch result.Status {
		case integrity.StatusUnchanged:
			logger.Info(ctx, fmt.Sprintf("No hash change for %s", name))
		case integrity.StatusNew:
			changed = true
			logger.Info(ctx, fmt.Sprintf("Generated new hash for %s", name))
		case integrity.StatusUpdated:
			changed = true
			logger.Info(ctx, fmt.Sprintf("Hash updated for %s: %s... -> %s...",
				name, integrity.Short(result.PreviousDigest), integrity.Short(result.NewDigest)))
		}
	}

	label := strings.ToUpper(h.Algorithm().Name)
	if changed {
		logger.Info(ctx, fmt.Sprintf("%s hash files updated successfully", label))
	} else {
		logger.Info(ctx, fmt.Sprintf("%s hash files are up to date", label))
	}
	return results, nil
}

// jsonReport is the document written by validate --output json.
type jsonReport struct {
	Valid  bool   `json:"valid"`
	Data   string `json:"data"`
	Schema string `json:"schema"`
	*validation.Report
}

// Validate checks the dataset against the schema and, when that passes,
// for duplicate site names. A failing dataset yields a validation error.
func (r *Runner) Validate(ctx context.Context) (*validation.Report, error) {
	logger := r.logger.WithComponent("validate")
	st := r.newStore()
	v, err := validation.New(st,
		validation.WithDraft(r.config.Validate.Draft),
		validation.WithCasefoldDuplicates(r.config.Validate.CasefoldDuplicates),
		validation.WithSnippetIndent(r.config.Format.Indent),
		validation.WithLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}

	report, err := v.Validate()
	if err != nil {
		return nil, err
	}

	if r.config.Validate.Output == "json" {
		if err := r.writeReport(st, report); err != nil {
			return nil, err
		}
	} else {
		for _, finding := range report.Findings {
			logFinding(ctx, logger, finding)
		}
	}

	if n := len(report.Findings); n > 0 {
		return report, wmnerrors.NewValidationError(wmnerrors.ErrCodeValidationFailed,
			fmt.Sprintf("JSON schema validation failed with %d error(s)", n)).
			WithContext("findings", n)
	}
	logger.Info(ctx, "JSON schema validation successful")

	if len(report.Duplicates) > 0 {
		return report, wmnerrors.NewValidationError(wmnerrors.ErrCodeDuplicateNames,
			fmt.Sprintf("Duplicate site 'name' values found: %q", report.Duplicates)).
			WithContext("duplicates", report.Duplicates)
	}
	logger.Info(ctx, "No duplicate site names found")
	logger.Info(ctx, "All validations passed successfully")
	return report, nil
}

func logFinding(ctx context.Context, logger logging.Logger, finding validation.Finding) {
	fields := []interface{}{"pointer", finding.Pointer}
	if finding.Site != "" {
		fields = append(fields, "site", finding.Site)
	}
	if finding.Data != "" {
		fields = append(fields, "offending_value", finding.Data)
	}
	logger.Error(ctx, nil, fmt.Sprintf("Schema violation at %s: %s", finding.Path, finding.Message), fields...)
}

func (r *Runner) writeReport(st *store.Store, report *validation.Report) error {
	out, err := json.MarshalIndent(jsonReport{
		Valid:  report.Valid(),
		Data:   st.DataPath(),
		Schema: st.SchemaPath(),
		Report: report,
	}, "", "  ")
	if err != nil {
		return wmnerrors.NewInternalError(wmnerrors.ErrCodeNotSerializable, "failed to encode validation report", err)
	}
	if _, err := fmt.Fprintf(r.out, "%s\n", out); err != nil {
		return wmnerrors.NewInternalError(wmnerrors.ErrCodeIO, "failed to write validation report", err)
	}
	return nil
}

// Check formats, hashes and validates in that order, stopping at the first
// failing step.
func (r *Runner) Check(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"format", func(ctx context.Context) error { _, err := r.Format(ctx); return err }},
		{"hash", func(ctx context.Context) error { _, err := r.Hash(ctx); return err }},
		{"validate", func(ctx context.Context) error { _, err := r.Validate(ctx); return err }},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		perf := logging.StartOperation(r.logger, step.name)
		if err := step.run(ctx); err != nil {
			perf.EndWithError(ctx, err)
			return err
		}
		perf.End(ctx)
	}
	return nil
}
