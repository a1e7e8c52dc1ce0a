package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	e := New(LikeToggled, "u1", "v1", map[string]string{"liked": "true"})
	value, err := json.Marshal(e)
	require.NoError(t, err)

	msg := message(e, value)
	assert.Equal(t, "v1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, LikeToggled, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "u1", decoded.ActorID)
	assert.Equal(t, "true", decoded.Attrs["liked"])
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), New(VideoPublished, "u", "v", nil)))
	require.NoError(t, r.Publish(context.Background(), New(VideoDeleted, "u", "v", nil)))
	assert.Equal(t, []string{VideoPublished, VideoDeleted}, r.Types())
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
