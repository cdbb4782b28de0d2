package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/chatgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", s)
	}
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())

	require.Less(t, a.String(), b.String())
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewAt(tm)

	require.WithinDuration(t, tm, id.Time(), time.Millisecond)
	require.True(t, idx.Zero.Time().IsZero())
}

func TestFromHeader(t *testing.T) {
	t.Run("keeps valid caller id", func(t *testing.T) {
		require.Equal(t, idx.ID("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"), idx.FromHeader("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"))
	})

	t.Run("replaces junk", func(t *testing.T) {
		id := idx.FromHeader("<script>")
		require.NotEqual(t, idx.ID("<script>"), id)
		_, err := idx.Parse(id.String())
		require.NoError(t, err)
	})
}
