package participant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInboxDeliversCurrentRoundInArrivalOrder(t *testing.T) {
	ib := newInbox()
	ib.deliver(0, 2, []byte("from-2"))
	ib.deliver(0, 3, []byte("from-3"))

	ctx := context.Background()
	from, payload, err := ib.next(ctx)
	require.NoError(t, err)
	require.Equal(t, uint16(2), from)
	require.Equal(t, []byte("from-2"), payload)

	from, payload, err = ib.next(ctx)
	require.NoError(t, err)
	require.Equal(t, uint16(3), from)
	require.Equal(t, []byte("from-3"), payload)
}

func TestInboxDropsMessagesBehindCurrentRound(t *testing.T) {
	ib := newInbox()
	ib.advance(1)
	ib.deliver(0, 2, []byte("stale"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := ib.next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInboxBuffersMessagesAheadOfCurrentRound(t *testing.T) {
	ib := newInbox()
	ib.deliver(1, 2, []byte("round-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := ib.next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	ib.advance(1)
	from, payload, err := ib.next(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint16(2), from)
	require.Equal(t, []byte("round-1"), payload)
}

func TestInboxNextUnblocksOnClose(t *testing.T) {
	ib := newInbox()
	done := make(chan error, 1)
	go func() {
		_, _, err := ib.next(context.Background())
		done <- err
	}()

	ib.close()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("next did not unblock after close")
	}
}
