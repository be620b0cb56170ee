package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueUniqueIdxIsIdempotentPerIdentity(t *testing.T) {
	r := newRoom(4)

	idx1, err := r.issueUniqueIdx([]byte("alice"), 3, 0)
	require.NoError(t, err)
	require.Equal(t, uint16(1), idx1)

	idx2, err := r.issueUniqueIdx([]byte("bob"), 3, 0)
	require.NoError(t, err)
	require.Equal(t, uint16(2), idx2)

	again, err := r.issueUniqueIdx([]byte("alice"), 3, 0)
	require.NoError(t, err)
	require.Equal(t, idx1, again)
}

func TestIssueUniqueIdxRejectsBeyondN(t *testing.T) {
	r := newRoom(4)
	_, err := r.issueUniqueIdx([]byte("a"), 1, 0)
	require.NoError(t, err)

	_, err = r.issueUniqueIdx([]byte("b"), 1, 0)
	require.ErrorIs(t, err, errRoomFull)
}

func TestIssueUniqueIdxHonorsRequestedIndex(t *testing.T) {
	r := newRoom(4)

	idx, err := r.issueUniqueIdx([]byte("alice"), 3, 2)
	require.NoError(t, err)
	require.Equal(t, uint16(2), idx)

	again, err := r.issueUniqueIdx([]byte("alice"), 3, 2)
	require.NoError(t, err)
	require.Equal(t, uint16(2), again)

	_, err = r.issueUniqueIdx([]byte("bob"), 3, 2)
	require.ErrorIs(t, err, errRoomFull)
}

func TestPublishAssignsMonotonicSeq(t *testing.T) {
	r := newRoom(10)
	seq0 := r.publish([]byte("one"))
	seq1 := r.publish([]byte("two"))
	seq2 := r.publish([]byte("three"))

	require.Equal(t, uint64(0), seq0)
	require.Equal(t, uint64(1), seq1)
	require.Equal(t, uint64(2), seq2)
}

func TestSnapshotFromReturnsOnlyNewerEntries(t *testing.T) {
	r := newRoom(10)
	r.publish([]byte("a"))
	r.publish([]byte("b"))
	r.publish([]byte("c"))

	entries, lowest, _ := r.snapshotFrom(1)
	require.Equal(t, uint64(0), lowest)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(1), entries[0].seq)
	require.Equal(t, uint64(2), entries[1].seq)
}

func TestBacklogEvictionAdvancesLowestRetained(t *testing.T) {
	r := newRoom(2)
	r.publish([]byte("a"))
	r.publish([]byte("b"))
	r.publish([]byte("c")) // evicts seq 0

	entries, lowest, _ := r.snapshotFrom(0)
	require.Equal(t, uint64(1), lowest)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(1), entries[0].seq)
}

func TestSnapshotFromWakesOnPublish(t *testing.T) {
	r := newRoom(10)
	_, _, notifyCh := r.snapshotFrom(0)

	done := make(chan struct{})
	go func() {
		<-notifyCh
		close(done)
	}()

	r.publish([]byte("x"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notify channel did not fire after publish")
	}
}
