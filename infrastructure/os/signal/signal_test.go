package signal

import (
	"context"
	"testing"
	"time"
)

func TestInterruptContext(t *testing.T) {
	interrupt := make(chan struct{})
	ctx, cancel := InterruptContext(context.Background(), interrupt)
	defer cancel()

	if ctx.Err() != nil {
		t.Fatalf("context canceled before the interrupt: %s", ctx.Err())
	}
	close(interrupt)
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("context wasn't canceled after the interrupt")
	}
}
