package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type failing struct{ err error }

func (f failing) Publish(context.Context, string, any) error { return f.err }

func TestMultiDeliversToAll(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	boom := errors.New("boom")

	err := Multi{a, failing{boom}, b, Nop{}}.Publish(context.Background(), "k", 42)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Event{{Key: "k", Value: 42}}, a.Events)
	assert.Equal(t, a.Events, b.Events)
}

func TestMultiEmpty(t *testing.T) {
	assert.NoError(t, Multi{}.Publish(context.Background(), "k", nil))
}

type stalled struct{}

func (stalled) Publish(ctx context.Context, _ string, _ any) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWithTimeoutBoundsStalledPublisher(t *testing.T) {
	p := WithTimeout(stalled{}, 20*time.Millisecond)

	begin := time.Now()
	err := p.Publish(context.Background(), "k", 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(begin), time.Second)
}

type ctxAware struct{ Recorder }

func (c *ctxAware) Publish(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Recorder.Publish(ctx, key, value)
}

func TestWithTimeoutIgnoresCallerCancel(t *testing.T) {
	p := &ctxAware{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, WithTimeout(p, time.Second).Publish(ctx, "k", 1))
	assert.Len(t, p.Events, 1)
}
