package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/resilience"
)

type fakeWriter struct {
	failures int
	events   []kafka.Event
}

func (f *fakeWriter) Publish(ctx context.Context, event kafka.Event) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.events = append(f.events, event)
	return nil
}

type fakeReloader struct {
	calls int
	err   error
}

func (f *fakeReloader) Reload(ctx context.Context) error {
	f.calls++
	return f.err
}

var fastRetry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

func TestPublisher_RetriesThenSucceeds(t *testing.T) {
	w := &fakeWriter{failures: 2}
	p := NewPublisher(w, fastRetry)

	err := p.Publish(context.Background(), IndexBuilt{BuildID: "b1", Documents: 3})
	require.NoError(t, err)
	require.Len(t, w.events, 1)
	assert.Equal(t, "b1", w.events[0].Key)
}

func TestPublisher_GivesUp(t *testing.T) {
	w := &fakeWriter{failures: 5}
	err := NewPublisher(w, fastRetry).Publish(context.Background(), IndexBuilt{BuildID: "b1"})
	require.Error(t, err)
	assert.Empty(t, w.events)
}

type encodeFailWriter struct{ calls int }

func (f *encodeFailWriter) Publish(ctx context.Context, event kafka.Event) error {
	f.calls++
	return kafka.ErrEncode
}

func TestPublisher_EncodeErrorNotRetried(t *testing.T) {
	w := &encodeFailWriter{}
	err := NewPublisher(w, fastRetry).Publish(context.Background(), IndexBuilt{BuildID: "b1"})
	assert.ErrorIs(t, err, kafka.ErrEncode)
	assert.Equal(t, 1, w.calls)
}

func TestReloadHandler(t *testing.T) {
	r := &fakeReloader{}
	handler := ReloadHandler(r)

	value, err := json.Marshal(IndexBuilt{BuildID: "b1", Documents: 2})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), []byte("b1"), value))
	assert.Equal(t, 1, r.calls)

	assert.Error(t, handler(context.Background(), nil, []byte("{not json")))
	assert.Equal(t, 1, r.calls)

	r.err = errors.New("disk gone")
	assert.ErrorIs(t, handler(context.Background(), nil, value), r.err)
}
