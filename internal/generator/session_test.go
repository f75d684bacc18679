package generator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjboer/GoRFburst/internal/logging"
	"github.com/rjboer/GoRFburst/internal/schedule"
	"github.com/rjboer/GoRFburst/internal/waveform"
)

func testWaveform(t *testing.T, name string) waveform.Waveform {
	t.Helper()
	data := make([]complex128, 1001)
	for i := range data {
		data[i] = complex(float64(i%7)+1, 0)
	}
	w, err := waveform.Normalize(waveform.Waveform{
		Name:       name,
		Data:       data,
		SampleRate: 10e6,
		Bursts:     []waveform.Burst{{Start: 100, Stop: 900}},
	})
	require.NoError(t, err)
	return w
}

var (
	testTiming = schedule.TimingConfig{DutyCyclePercent: 50, PreBurstTime: 1e-6, PostBurstTime: 2e-6, BurstStartTriggerExport: "PXI_Trig0"}
	testPA     = schedule.PAEnableConfig{Mode: schedule.PAEnableDynamic, TriggerExportTerminal: "PFI1", OutputBehaviour: schedule.OutputToggle, CommandEnableTime: 1e-6, CommandDisableTime: 1e-6}
)

func ops(calls []Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Op
	}
	return out
}

func TestSessionConfigureOrder(t *testing.T) {
	mock := NewMock()
	var logs bytes.Buffer
	session := NewSession(mock, logging.New(logging.Debug, logging.Text, &logs))

	res, err := session.Configure(context.Background(), testWaveform(t, "lte"), testTiming, testPA)
	require.NoError(t, err)

	assert.Equal(t, []string{"abort", "write_waveform", "write_script", "export_marker", "export_marker", "initiate"}, ops(mock.Calls()))
	script, ok := mock.Script("lte50")
	require.True(t, ok)
	assert.Equal(t, res.Script, script)

	running, selected := mock.Running()
	assert.True(t, running)
	assert.Equal(t, "lte50", selected)

	start, ok := mock.Marker(schedule.BurstStartMarker)
	require.True(t, ok)
	assert.Equal(t, MarkerExport{Terminal: "PXI_Trig0", Behaviour: schedule.OutputPulse}, start)
	paen, ok := mock.Marker(schedule.PAEnableMarker)
	require.True(t, ok)
	assert.Equal(t, MarkerExport{Terminal: "PFI1", Behaviour: schedule.OutputToggle}, paen)

	current, ok := session.Current()
	require.True(t, ok)
	assert.Equal(t, res, current)
	assert.Contains(t, logs.String(), "burst generation started")
	assert.Contains(t, logs.String(), "script=lte50")
}

func TestSessionDownloadsWaveformOnce(t *testing.T) {
	mock := NewMock()
	session := NewSession(mock, nil)
	ctx := context.Background()
	w := testWaveform(t, "lte")

	_, err := session.Configure(ctx, w, testTiming, testPA)
	require.NoError(t, err)
	tc := testTiming
	tc.DutyCyclePercent = 25
	res, err := session.Configure(ctx, w, tc, testPA)
	require.NoError(t, err)
	assert.Equal(t, "lte25", res.ScriptName)

	downloads := 0
	for _, c := range mock.Calls() {
		if c.Op == "write_waveform" {
			downloads++
		}
	}
	assert.Equal(t, 1, downloads)
}

func TestSessionScheduleErrorLeavesGeneratorUntouched(t *testing.T) {
	mock := NewMock()
	session := NewSession(mock, nil)

	tc := testTiming
	tc.DutyCyclePercent = 0
	_, err := session.Configure(context.Background(), testWaveform(t, "lte"), tc, testPA)
	require.Error(t, err)
	assert.True(t, waveform.IsValidation(err))
	assert.Empty(t, mock.Calls())
	_, ok := session.Current()
	assert.False(t, ok)
}

func TestSessionUpdateRedownloadsDerivedWaveform(t *testing.T) {
	mock := NewMock()
	session := NewSession(mock, nil)
	ctx := context.Background()

	_, err := session.Update(ctx, testWaveform(t, "lte"))
	require.ErrorIs(t, err, ErrNotConfigured)

	base := testWaveform(t, "lte")
	first, err := session.Configure(ctx, base, testTiming, testPA)
	require.NoError(t, err)

	derived, err := base.Derive("lte", make1001(0.5))
	require.NoError(t, err)
	second, err := session.Update(ctx, derived)
	require.NoError(t, err)
	assert.Equal(t, first.Script, second.Script)

	stored, ok := mock.Waveform("lte")
	require.True(t, ok)
	assert.Equal(t, derived.Data, stored)

	calls := ops(mock.Calls())
	assert.Equal(t, []string{"abort", "write_waveform", "write_script", "export_marker", "export_marker", "initiate"}, calls[len(calls)-6:])
}

func make1001(v float64) []complex128 {
	data := make([]complex128, 1001)
	for i := range data {
		data[i] = complex(v, v)
	}
	return data
}

func TestSessionPropagatesGeneratorErrors(t *testing.T) {
	mock := NewMock()
	boom := errors.New("driver timeout")
	mock.Fail("initiate", boom)
	session := NewSession(mock, nil)

	_, err := session.Configure(context.Background(), testWaveform(t, "lte"), testTiming, testPA)
	require.ErrorIs(t, err, boom)
	assert.True(t, strings.HasPrefix(err.Error(), "initiate generation"))
	_, ok := session.Current()
	assert.False(t, ok)

	mock.Fail("initiate", nil)
	_, err = session.Configure(context.Background(), testWaveform(t, "lte"), testTiming, testPA)
	require.NoError(t, err)
}

func TestSessionDisabledModeSkipsPAExport(t *testing.T) {
	mock := NewMock()
	session := NewSession(mock, nil)
	pa := testPA
	pa.Mode = schedule.PAEnableDisabled

	res, err := session.Configure(context.Background(), testWaveform(t, "lte"), testTiming, pa)
	require.NoError(t, err)
	assert.NotContains(t, res.Script, "marker1")
	_, ok := mock.Marker(schedule.PAEnableMarker)
	assert.False(t, ok)
}

func TestSessionCancelledContext(t *testing.T) {
	mock := NewMock()
	session := NewSession(mock, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Configure(ctx, testWaveform(t, "lte"), testTiming, testPA)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mock.Calls())
}

func TestSessionStopAndClose(t *testing.T) {
	mock := NewMock()
	session := NewSession(mock, nil)
	ctx := context.Background()

	_, err := session.Configure(ctx, testWaveform(t, "lte"), testTiming, testPA)
	require.NoError(t, err)
	require.NoError(t, session.Stop(ctx))
	running, _ := mock.Running()
	assert.False(t, running)

	require.NoError(t, session.Close(ctx))
	require.NoError(t, session.Close(ctx))
	assert.ErrorIs(t, session.Stop(ctx), ErrClosed)
	_, err = session.Configure(ctx, testWaveform(t, "lte"), testTiming, testPA)
	assert.ErrorIs(t, err, ErrClosed)
}
