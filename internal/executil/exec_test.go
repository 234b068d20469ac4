package executil

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_Run(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := RealExecutor{}.Run(context.Background(), "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	_, err = RealExecutor{}.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestRecordingExecutor(t *testing.T) {
	boom := errors.New("boom")
	e := &RecordingExecutor{
		Outputs: map[string][]byte{"xdg-open": []byte("ok")},
		Errors:  map[string]error{"termux-location": boom},
	}

	out, err := e.Run(context.Background(), "xdg-open", "tel:+15550001")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))

	_, err = e.Run(context.Background(), "termux-location")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []RecordedCommand{
		{Cmd: "xdg-open", Args: []string{"tel:+15550001"}},
		{Cmd: "termux-location", Args: nil},
	}, e.Recorded())
}
