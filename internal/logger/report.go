package logger

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNonfatal marks errors collected by a Report. The export finished but
// some objects were skipped.
var ErrNonfatal = errors.New("nonfatal export error")

// Report is the export log of one session. Warnings and errors are logged
// and kept so the caller can fail the export after everything ran.
type Report struct {
	log      *zap.SugaredLogger
	warnings []string
	errs     []error
}

// NewReport returns a report logging through log. A nil log discards
// messages but still collects them.
func NewReport(log *zap.Logger) *Report {
	if log == nil {
		log = zap.NewNop()
	}
	return &Report{log: log.Sugar()}
}

// Msg logs an informational message.
func (r *Report) Msg(format string, args ...any) {
	r.log.Infof(format, args...)
}

// Warn logs and records a warning.
func (r *Report) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.log.Warn(msg)
	r.warnings = append(r.warnings, msg)
}

// Error logs and records a nonfatal error.
func (r *Report) Error(err error) {
	if err == nil {
		return
	}
	r.log.Error(err.Error())
	r.errs = append(r.errs, err)
}

// Warnings returns the recorded warnings in order.
func (r *Report) Warnings() []string {
	return r.warnings
}

// Errors returns the recorded errors in order.
func (r *Report) Errors() []error {
	return r.errs
}

// Err returns nil when nothing failed. Otherwise the result wraps
// ErrNonfatal and every recorded error.
func (r *Report) Err() error {
	switch len(r.errs) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%w: %w", ErrNonfatal, r.errs[0])
	default:
		return fmt.Errorf("%w: %d errors were encountered during export: %w",
			ErrNonfatal, len(r.errs), multierr.Combine(r.errs...))
	}
}
