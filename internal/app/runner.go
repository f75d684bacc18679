// Package app runs a configured burst schedule on a signal generator.
package app

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/rjboer/GoRFburst/internal/config"
	"github.com/rjboer/GoRFburst/internal/discovery"
	"github.com/rjboer/GoRFburst/internal/dsp"
	"github.com/rjboer/GoRFburst/internal/generator"
	"github.com/rjboer/GoRFburst/internal/iqfile"
	"github.com/rjboer/GoRFburst/internal/logging"
	"github.com/rjboer/GoRFburst/internal/schedule"
	"github.com/rjboer/GoRFburst/internal/waveform"
)

const (
	// paprTolerance is how far, in dB, the computed PAPR may drift from the
	// value stored in the waveform file before a warning is logged.
	paprTolerance = 0.5
	obwFraction   = 0.99
	obwMargin     = 1.05
)

// ErrNotInitialized is returned when Start or Update run before Init.
var ErrNotInitialized = errors.New("app: runner not initialized")

// Dialer opens a generator session for a resource name.
type Dialer func(ctx context.Context, resource string) (generator.Generator, error)

// Option customizes a Runner.
type Option func(*Runner)

// WithBrowser replaces the mDNS browser used for "auto" resources.
func WithBrowser(b discovery.BrowseFunc) Option {
	return func(r *Runner) { r.browse = b }
}

// Runner loads the configured waveform, opens the generator and keeps the
// burst schedule applied to it.
type Runner struct {
	cfg      config.Config
	dial     Dialer
	browse   discovery.BrowseFunc
	logger   logging.Logger
	analyzer *dsp.Analyzer

	resource string
	wave     waveform.Waveform
	session  *generator.Session
}

// NewRunner builds a runner. A nil logger falls back to logging.Default().
func NewRunner(cfg config.Config, dial Dialer, logger logging.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Runner{
		cfg:      cfg,
		dial:     dial,
		logger:   logger.With(logging.F("subsystem", "runner")),
		analyzer: dsp.NewAnalyzer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init resolves the instrument, loads and normalizes the waveform and opens
// the generator session.
func (r *Runner) Init(ctx context.Context) error {
	if r.dial == nil {
		return errors.New("app: no generator dialer configured")
	}
	resource, err := r.resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve instrument: %w", err)
	}

	src, err := iqfile.Load(r.cfg.Waveform.Path)
	if err != nil {
		return fmt.Errorf("load waveform: %w", err)
	}
	if r.cfg.Waveform.Name != "" {
		src.Name = r.cfg.Waveform.Name
	}
	w, err := waveform.FromSource(src)
	if err != nil {
		return fmt.Errorf("prepare waveform %s: %w", src.Name, err)
	}
	r.crossCheck(w)

	gen, err := r.dial(ctx, resource)
	if err != nil {
		return fmt.Errorf("open generator %s: %w", resource, err)
	}
	r.resource = resource
	r.wave = w
	r.session = generator.NewSession(gen, r.logger)
	return nil
}

func (r *Runner) resolve(ctx context.Context) (string, error) {
	if r.cfg.Instrument.Resource != config.ResourceAuto {
		return r.cfg.Instrument.Resource, nil
	}
	browseCtx, cancel := context.WithTimeout(ctx, r.cfg.DiscoveryTimeout())
	defer cancel()
	inst, err := discovery.First(browseCtx, r.browse, r.cfg.Instrument.Service, r.cfg.Instrument.Match)
	if err != nil {
		return "", err
	}
	r.logger.Info("instrument discovered",
		logging.F("instance", inst.Instance),
		logging.F("resource", inst.Resource()),
	)
	return inst.Resource(), nil
}

// crossCheck compares computed waveform properties with what the file
// declares. Mismatches are logged, not rejected.
func (r *Runner) crossCheck(w waveform.Waveform) {
	fields := []logging.Field{
		logging.F("waveform", w.Name),
		logging.F("samples", w.SampleCount()),
		logging.F("sample_rate", humanize.SIWithDigits(w.SampleRate, 3, "S/s")),
		logging.F("burst_length", humanize.SIWithDigits(w.BurstLength(), 3, "s")),
		logging.F("papr_db", w.PAPR),
	}
	if w.StoredPAPR != 0 && math.Abs(w.PAPR-w.StoredPAPR) > paprTolerance {
		r.logger.Warn("computed PAPR differs from waveform file",
			logging.F("waveform", w.Name),
			logging.F("papr_db", w.PAPR),
			logging.F("stored_papr_db", w.StoredPAPR),
			logging.F("version", w.Version),
		)
	}
	obw, err := w.OccupiedBandwidth(r.analyzer, obwFraction)
	switch {
	case err != nil:
		r.logger.Warn("occupied bandwidth estimate failed", logging.F("waveform", w.Name), logging.F("error", err))
	case obw > w.Bandwidth*obwMargin:
		r.logger.Warn("occupied bandwidth exceeds declared bandwidth",
			logging.F("waveform", w.Name),
			logging.F("occupied", humanize.SIWithDigits(obw, 3, "Hz")),
			logging.F("declared", humanize.SIWithDigits(w.Bandwidth, 3, "Hz")),
		)
	default:
		fields = append(fields, logging.F("occupied_bw", humanize.SIWithDigits(obw, 3, "Hz")))
	}
	r.logger.Info("waveform loaded", fields...)
}

// Start applies the configured schedule and begins generation.
func (r *Runner) Start(ctx context.Context) (schedule.Result, error) {
	if r.session == nil {
		return schedule.Result{}, ErrNotInitialized
	}
	pa, err := r.cfg.SchedulePAEnable()
	if err != nil {
		return schedule.Result{}, err
	}
	return r.session.Configure(ctx, r.wave, r.cfg.ScheduleTiming(), pa, r.cfg.ScheduleOptions()...)
}

// Update swaps in new samples for the loaded waveform, for example the output
// of a predistortion step, keeping the running schedule. The loaded waveform
// is replaced by the derived one only when the generator accepted it.
func (r *Runner) Update(ctx context.Context, name string, data []complex128) (schedule.Result, error) {
	if r.session == nil {
		return schedule.Result{}, ErrNotInitialized
	}
	derived, err := r.wave.Derive(name, data)
	if err != nil {
		return schedule.Result{}, fmt.Errorf("derive waveform %s: %w", name, err)
	}
	res, err := r.session.Update(ctx, derived)
	if err != nil {
		return schedule.Result{}, err
	}
	r.wave = derived
	r.logger.Info("waveform updated", logging.F("waveform", name), logging.F("papr_db", derived.PAPR))
	return res, nil
}

// Waveform returns the waveform currently scheduled.
func (r *Runner) Waveform() waveform.Waveform { return r.wave }

// Resource returns the instrument resource opened by Init.
func (r *Runner) Resource() string { return r.resource }

// Stop aborts generation.
func (r *Runner) Stop(ctx context.Context) error {
	if r.session == nil {
		return ErrNotInitialized
	}
	return r.session.Stop(ctx)
}

// Close stops generation and releases the generator.
func (r *Runner) Close(ctx context.Context) error {
	if r.session == nil {
		return nil
	}
	return r.session.Close(ctx)
}
