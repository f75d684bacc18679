package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/rjboer/GoRFburst/internal/schedule"
)

// Call is one recorded Mock invocation.
type Call struct {
	Op   string
	Name string
}

// MarkerExport is a recorded ExportMarker configuration.
type MarkerExport struct {
	Terminal  string
	Behaviour schedule.OutputBehaviour
}

// Mock is an in-memory Generator that records every call. Failures can be
// injected per operation through Fail.
type Mock struct {
	mu        sync.RWMutex
	calls     []Call
	waveforms map[string][]complex128
	scripts   map[string]string
	markers   map[int]MarkerExport
	selected  string
	running   bool
	closed    bool
	fail      map[string]error
}

// NewMock returns an idle Mock.
func NewMock() *Mock {
	return &Mock{
		waveforms: make(map[string][]complex128),
		scripts:   make(map[string]string),
		markers:   make(map[int]MarkerExport),
		fail:      make(map[string]error),
	}
}

// Fail makes every later call of op ("write_waveform", "write_script",
// "export_marker", "initiate", "abort") return err. A nil err clears it.
func (m *Mock) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

func (m *Mock) record(op, name string) error {
	if m.closed {
		return ErrClosed
	}
	m.calls = append(m.calls, Call{Op: op, Name: name})
	return m.fail[op]
}

func (m *Mock) WriteWaveform(_ context.Context, name string, data []complex128) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("write_waveform", name); err != nil {
		return err
	}
	if m.running {
		return fmt.Errorf("mock: cannot write waveform %q while generating", name)
	}
	m.waveforms[name] = append([]complex128(nil), data...)
	return nil
}

func (m *Mock) WriteScript(_ context.Context, name, script string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("write_script", name); err != nil {
		return err
	}
	if m.running {
		return fmt.Errorf("mock: cannot write script %q while generating", name)
	}
	m.scripts[name] = script
	m.selected = name
	return nil
}

func (m *Mock) ExportMarker(_ context.Context, marker int, terminal string, behaviour schedule.OutputBehaviour) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("export_marker", fmt.Sprintf("marker%d", marker)); err != nil {
		return err
	}
	m.markers[marker] = MarkerExport{Terminal: terminal, Behaviour: behaviour}
	return nil
}

func (m *Mock) Initiate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("initiate", m.selected); err != nil {
		return err
	}
	if m.selected == "" {
		return fmt.Errorf("mock: no script selected")
	}
	m.running = true
	return nil
}

func (m *Mock) Abort(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("abort", ""); err != nil {
		return err
	}
	m.running = false
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.running = false
	return nil
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Call(nil), m.calls...)
}

// Script returns the script stored under name.
func (m *Mock) Script(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scripts[name]
	return s, ok
}

// Waveform returns the samples stored under name.
func (m *Mock) Waveform(name string) ([]complex128, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.waveforms[name]
	return w, ok
}

// Marker returns the export configured for a marker.
func (m *Mock) Marker(marker int) (MarkerExport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.markers[marker]
	return e, ok
}

// Running reports whether the mock is generating and which script it plays.
func (m *Mock) Running() (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running, m.selected
}
