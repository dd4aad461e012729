package async_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/jobrisk/pkg/utils/async"
	"github.com/secmon-lab/jobrisk/pkg/utils/logging"
)

func TestDispatchRunsHandler(t *testing.T) {
	done := make(chan struct{})
	async.Dispatch(context.Background(), "test", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not executed")
	}
}

func TestDispatchSurvivesErrorAndPanic(t *testing.T) {
	errDone := make(chan struct{})
	async.Dispatch(context.Background(), "test", func(ctx context.Context) error {
		defer close(errDone)
		return errors.New("boom")
	})

	panicDone := make(chan struct{})
	async.Dispatch(context.Background(), "test", func(ctx context.Context) error {
		defer close(panicDone)
		panic("unexpected")
	})

	for _, ch := range []chan struct{}{errDone, panicDone} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("handler did not finish")
		}
	}
}

func TestDispatchDetachesCancelAndKeepsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx, cancel := context.WithCancel(logging.With(context.Background(), logger))
	cancel()

	done := make(chan error, 1)
	async.Dispatch(ctx, "initial-load", func(ctx context.Context) error {
		logging.From(ctx).Info("running")
		done <- ctx.Err()
		return nil
	})

	select {
	case err := <-done:
		gt.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler was not executed")
	}
	gt.String(t, buf.String()).Contains(`"task":"initial-load"`)
}
