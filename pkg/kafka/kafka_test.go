package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type event struct {
		BuildID string `json:"build_id"`
	}
	got, err := DecodeJSON[event]([]byte(`{"build_id":"b1"}`))
	require.NoError(t, err)
	assert.Equal(t, "b1", got.BuildID)

	_, err = DecodeJSON[event]([]byte(`{`))
	assert.Error(t, err)
}

func TestPing_NoBrokers(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}

func TestPing_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.Error(t, Ping(ctx, []string{"127.0.0.1:1"}))
}
