package crypto

import (
	"testing"

	"github.com/bnb-chain/tss-lib/v2/tss"
	"github.com/stretchr/testify/require"
)

func TestPartyIDsForKeysPreservesRealKeysForNonPrefixQuorum(t *testing.T) {
	sorted := tss.SortPartyIDs(partyIDsForKeys([]uint16{2, 3}))

	keys := make([]int64, len(sorted))
	for i, p := range sorted {
		keys[i] = p.KeyInt().Int64()
	}
	require.ElementsMatch(t, []int64{2, 3}, keys)
}

func TestPartyIDsSequentialForFullKeygenSet(t *testing.T) {
	sorted := tss.SortPartyIDs(partyIDs(4))
	for i, p := range sorted {
		require.Equal(t, int64(i+1), p.KeyInt().Int64())
	}
}

func TestPartyIDByKeyFindsMember(t *testing.T) {
	sorted := tss.SortPartyIDs(partyIDsForKeys([]uint16{2, 3, 5}))

	p := partyIDByKey(sorted, 5)
	require.NotNil(t, p)
	require.Equal(t, int64(5), p.KeyInt().Int64())

	require.Nil(t, partyIDByKey(sorted, 99))
}

func TestPartyIDsForKeysSortedPositionCarriesRealKey(t *testing.T) {
	sorted := tss.SortPartyIDs(partyIDsForKeys([]uint16{2, 3}))
	// The second sorted party (position 1) carries real key 3, not the
	// position-based index 2 a renumbered scheme would produce.
	require.Equal(t, int64(3), sorted[1].KeyInt().Int64())
}
