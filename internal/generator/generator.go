// Package generator defines the contract with the vendor signal generator
// driver that plays burst scripts, plus a Session that serializes
// reconfiguration of a running generator.
package generator

import (
	"context"
	"errors"

	"github.com/rjboer/GoRFburst/internal/schedule"
)

var (
	// ErrClosed is returned by operations on a closed generator or session.
	ErrClosed = errors.New("generator: closed")
	// ErrNotConfigured is returned by Session.Update before Configure succeeded.
	ErrNotConfigured = errors.New("generator: session not configured")
)

// Sequencer is the part of a generator the scheduler depends on: it accepts a
// script and routes the two script markers to hardware terminals.
type Sequencer interface {
	WriteScript(ctx context.Context, name, script string) error
	ExportMarker(ctx context.Context, marker int, terminal string, behaviour schedule.OutputBehaviour) error
}

// Generator is a full arbitrary waveform generator session.
type Generator interface {
	Sequencer
	WriteWaveform(ctx context.Context, name string, data []complex128) error
	Initiate(ctx context.Context) error
	Abort(ctx context.Context) error
	Close() error
}
