package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
)

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	require.NoError(t, p.Publish(context.Background(), BuildEvent{RunID: "x"}))
	require.NoError(t, p.Close())
}

func TestBuildEventJSON(t *testing.T) {
	ev := BuildEvent{
		RunID:      "run-1",
		Status:     "success",
		Timestamp:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationMS: 42,
		BaseURL:    "/baseurl",
		Files:      map[string]int{"css": 2, "html": 2, "other": 2},
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.EqualValues(t, 42, decoded["duration_ms"])
	assert.NotContains(t, decoded, "error")
	assert.NotContains(t, decoded, "split")
}

func TestNewNATSPublisher_Validation(t *testing.T) {
	_, err := NewNATSPublisher("", "dist.builds")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = NewNATSPublisher("nats://127.0.0.1:4222", "")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	// Port 1 is reserved and nothing listens there.
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "dist.builds")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestNATSPublisher_CloseNil(t *testing.T) {
	var p *NATSPublisher
	assert.NoError(t, p.Close())
}
