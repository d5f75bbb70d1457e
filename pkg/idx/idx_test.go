package idx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/oncreesaas/oncree/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())
	require.Len(t, a.String(), 26)
	require.Less(t, a.String(), b.String())

	// same millisecond still increases
	now := time.Now().UTC()
	c, d := idx.NewAt(now), idx.NewAt(now)
	require.Less(t, c.String(), d.String())
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	require.WithinDuration(t, tm, idx.NewAt(tm).Time(), time.Millisecond)
	require.True(t, idx.ID("nope").Time().IsZero())
}

func TestChallengeID(t *testing.T) {
	id := idx.NewChallengeID()
	require.NotEqual(t, id, idx.NewChallengeID())

	parsed, err := idx.ParseChallengeID(" " + strings.ToUpper(id) + " ")
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	for _, bad := range []string{"", "123", "00000000-0000-1000-8000-000000000000"} {
		_, err := idx.ParseChallengeID(bad)
		require.ErrorIs(t, err, idx.ErrInvalid, bad)
	}
}
