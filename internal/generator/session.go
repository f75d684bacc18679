package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/rjboer/GoRFburst/internal/logging"
	"github.com/rjboer/GoRFburst/internal/schedule"
	"github.com/rjboer/GoRFburst/internal/waveform"
)

type plan struct {
	timing   schedule.TimingConfig
	paEnable schedule.PAEnableConfig
	opts     []schedule.Option
	result   schedule.Result
}

// Session owns a Generator and applies burst schedules to it one at a time.
// Every reconfiguration runs abort, schedule download and initiate as one
// step under the session lock.
type Session struct {
	mu     sync.Mutex
	gen    Generator
	logger logging.Logger
	loaded map[string]bool
	last   *plan
	closed bool
}

// NewSession wraps gen. A nil logger falls back to logging.Default().
func NewSession(gen Generator, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{
		gen:    gen,
		logger: logger.With(logging.F("subsystem", "generator")),
		loaded: make(map[string]bool),
	}
}

// Configure schedules w and starts playing it. The waveform is downloaded
// only if the session has not written a waveform of that name before.
func (s *Session) Configure(ctx context.Context, w waveform.Waveform, tc schedule.TimingConfig, pa schedule.PAEnableConfig, opts ...schedule.Option) (schedule.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, w, tc, pa, opts, false)
}

// Update replaces the playing waveform with a derived one (for example after
// predistortion) using the timing of the last successful Configure. The
// derived samples are always downloaded.
func (s *Session) Update(ctx context.Context, w waveform.Waveform) (schedule.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return schedule.Result{}, ErrNotConfigured
	}
	return s.apply(ctx, w, s.last.timing, s.last.paEnable, s.last.opts, true)
}

func (s *Session) apply(ctx context.Context, w waveform.Waveform, tc schedule.TimingConfig, pa schedule.PAEnableConfig, opts []schedule.Option, reload bool) (schedule.Result, error) {
	if s.closed {
		return schedule.Result{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return schedule.Result{}, err
	}

	// Schedule before touching the generator; a bad configuration must not reach it.
	res, err := schedule.Schedule(w, tc, pa, opts...)
	if err != nil {
		return schedule.Result{}, fmt.Errorf("schedule %s: %w", w.Name, err)
	}

	if err := s.gen.Abort(ctx); err != nil {
		return schedule.Result{}, fmt.Errorf("abort generation: %w", err)
	}
	if reload || !s.loaded[w.Name] {
		delete(s.loaded, w.Name)
		if err := s.gen.WriteWaveform(ctx, w.Name, w.Data); err != nil {
			return schedule.Result{}, fmt.Errorf("download waveform %s: %w", w.Name, err)
		}
		s.loaded[w.Name] = true
		s.logger.Debug("waveform downloaded", logging.F("waveform", w.Name), logging.F("samples", len(w.Data)))
	}
	if err := s.gen.WriteScript(ctx, res.ScriptName, res.Script); err != nil {
		return schedule.Result{}, fmt.Errorf("download script %s: %w", res.ScriptName, err)
	}
	if err := s.exportMarkers(ctx, tc, pa); err != nil {
		return schedule.Result{}, err
	}
	if err := s.gen.Initiate(ctx); err != nil {
		return schedule.Result{}, fmt.Errorf("initiate generation: %w", err)
	}

	s.last = &plan{timing: tc, paEnable: pa, opts: opts, result: res}
	s.logger.Info("burst generation started",
		logging.F("script", res.ScriptName),
		logging.F("waveform", w.Name),
		logging.F("pa_enable", pa.Mode),
		logging.F("period", humanize.SIWithDigits(res.Period, 3, "s")),
		logging.F("idle", humanize.SIWithDigits(res.IdleTime, 3, "s")),
		logging.F("idle_samples", res.Timing.IdleSamples),
		logging.F("long_command", res.LongCommand),
	)
	return res, nil
}

func (s *Session) exportMarkers(ctx context.Context, tc schedule.TimingConfig, pa schedule.PAEnableConfig) error {
	if tc.BurstStartTriggerExport != "" {
		if err := s.gen.ExportMarker(ctx, schedule.BurstStartMarker, tc.BurstStartTriggerExport, schedule.OutputPulse); err != nil {
			return fmt.Errorf("export burst start marker: %w", err)
		}
	}
	if pa.Mode != schedule.PAEnableDisabled && pa.TriggerExportTerminal != "" {
		if err := s.gen.ExportMarker(ctx, schedule.PAEnableMarker, pa.TriggerExportTerminal, pa.OutputBehaviour); err != nil {
			return fmt.Errorf("export PA enable marker: %w", err)
		}
	}
	return nil
}

// Stop aborts generation. The last schedule is kept for Update.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.gen.Abort(ctx); err != nil {
		return fmt.Errorf("abort generation: %w", err)
	}
	s.logger.Info("burst generation stopped")
	return nil
}

// Current returns the schedule most recently applied.
func (s *Session) Current() (schedule.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return schedule.Result{}, false
	}
	return s.last.result, true
}

// Close aborts generation and closes the generator.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	abortErr := s.gen.Abort(ctx)
	if err := s.gen.Close(); err != nil {
		return fmt.Errorf("close generator: %w", err)
	}
	if abortErr != nil {
		return fmt.Errorf("abort generation: %w", abortErr)
	}
	return nil
}
