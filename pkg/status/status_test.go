package status

import (
	"testing"

	"github.com/fieldbridge/driver/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	messages []Message
}

func (r *recordingEmitter) Emit(m Message) error {
	r.messages = append(r.messages, m)
	return nil
}

func TestStartStopEmitSuccess(t *testing.T) {
	e := &recordingEmitter{}
	h := NewHandler(1, e)
	require.NoError(t, h.Start(""))
	require.NoError(t, h.Stop("k1"))
	require.Len(t, e.messages, 2)
	assert.Equal(t, VariantSuccess, e.messages[0].Variant)
	assert.True(t, e.messages[0].Details.Running)
	assert.False(t, e.messages[1].Details.Running)
	assert.Equal(t, "k1", e.messages[1].Details.Cmd)
}

func TestErrorDeduplicatesIdenticalRepeats(t *testing.T) {
	e := &recordingEmitter{}
	h := NewHandler(1, e)
	require.NoError(t, h.Start(""))

	err := errors.New("driver.unreachable", "device 7")
	require.NoError(t, h.Error(err))
	require.NoError(t, h.Error(err))
	require.NoError(t, h.Error(err))

	// start + one error (the two repeats are deduplicated)
	require.Len(t, e.messages, 2)
	assert.Equal(t, VariantError, e.messages[1].Variant)
	assert.False(t, e.messages[1].Details.Running)
}

func TestErrorReEmitsOnChange(t *testing.T) {
	e := &recordingEmitter{}
	h := NewHandler(1, e)
	require.NoError(t, h.Error(errors.New("driver.unreachable", "device 7")))
	require.NoError(t, h.Error(errors.New("driver.unreachable", "device 8")))
	require.Len(t, e.messages, 2)
}

func TestClearRestoresSuccessFromWarning(t *testing.T) {
	e := &recordingEmitter{}
	h := NewHandler(1, e)
	require.NoError(t, h.Warn("sample dropped"))
	require.NoError(t, h.Clear())
	assert.Equal(t, VariantSuccess, e.messages[len(e.messages)-1].Variant)
}

func TestClearDoesNotWipeLatchedError(t *testing.T) {
	e := &recordingEmitter{}
	h := NewHandler(1, e)
	require.NoError(t, h.Error(errors.New("driver.unreachable", "device 7")))
	require.NoError(t, h.Clear())
	assert.Equal(t, VariantError, e.messages[len(e.messages)-1].Variant)
}

func TestWarnAlwaysReEmits(t *testing.T) {
	e := &recordingEmitter{}
	h := NewHandler(1, e)
	require.NoError(t, h.Warn("sample dropped"))
	require.NoError(t, h.Warn("sample dropped"))
	assert.Len(t, e.messages, 2)
}

func TestWarnEmitsLatchedErrorInstead(t *testing.T) {
	e := &recordingEmitter{}
	h := NewHandler(1, e)
	require.NoError(t, h.Error(errors.New("driver.unreachable", "device 7")))
	require.NoError(t, h.Warn("sample dropped"))

	last := e.messages[len(e.messages)-1]
	assert.Equal(t, VariantError, last.Variant)
	assert.Contains(t, last.Message, "device 7")
	assert.NotContains(t, last.Message, "sample dropped")
}
