package scrape

import (
	"log/slog"

	"github.com/cenozavr/okey-delivery-scraper/internal/driver"
	"github.com/cenozavr/okey-delivery-scraper/internal/metrics"
)

// Attempt runs one fallible interaction step and applies the containment
// policy. A transient fault is logged once with full context and swallowed:
// the caller receives the neutral zero value and keeps going. Anything
// outside the known transient set is logged once and returned, unwinding the
// run. Known site flakiness must not kill a multi-hour scrape; unknown
// failure modes must surface loudly.
func Attempt[T any](logger *slog.Logger, m *metrics.Metrics, step string, fn func() (T, error)) (T, error) {
	value, err := fn()
	if err == nil {
		return value, nil
	}

	kind := driver.KindOf(err)
	m.IncFault(string(kind))

	var zero T
	if kind.Transient() {
		logger.Error("step failed, continuing", "step", step, "fault", string(kind), "error", err)
		return zero, nil
	}
	logger.Error("unexpected failure", "step", step, "fault", string(kind), "error", err)
	return zero, err
}

// AttemptDo is Attempt for steps that produce no value.
func AttemptDo(logger *slog.Logger, m *metrics.Metrics, step string, fn func() error) error {
	_, err := Attempt(logger, m, step, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
