package idx_test

import (
	"sort"
	"testing"
	"time"

	"github.com/aussiebroadwan/worklog/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.Len(t, id.String(), 26)
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", s)
	}
}

func TestParseNormalisesCase(t *testing.T) {
	id, err := idx.Parse("01hq7t3z1mz0jq3m6mzq1fq3zv")
	require.NoError(t, err)
	require.Equal(t, idx.ID("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"), id)
}

func TestOrdering(t *testing.T) {
	ids := []string{
		idx.NewAt(time.Unix(3, 0)).String(),
		idx.NewAt(time.Unix(1, 0)).String(),
		idx.NewAt(time.Unix(2, 0)).String(),
	}
	sorted := append([]string{}, ids...)
	sort.Strings(sorted)
	require.Equal(t, []string{ids[1], ids[2], ids[0]}, sorted)
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewAt(tm)
	require.WithinDuration(t, tm, id.Time(), time.Millisecond)

	require.True(t, idx.Zero.Time().IsZero())
	require.True(t, idx.ID("garbage").Time().IsZero())
}

func TestMustParse(t *testing.T) {
	require.NotPanics(t, func() { idx.MustParse("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV") })
	require.Panics(t, func() { idx.MustParse("nope") })
}

func TestValid(t *testing.T) {
	require.True(t, idx.Valid(idx.New().String()))
	require.False(t, idx.Valid("missing"))
	require.False(t, idx.Valid(""))
}
