package combin_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/szz/pkg/alg/combin"
)

func collect(g *combin.Generator) [][]int {
	var out [][]int

	for g.HasMore() {
		out = append(out, append([]int(nil), g.Next()...))
	}

	return out
}

func TestNew_InvalidArgs(t *testing.T) {
	t.Parallel()

	_, err := combin.New(2, 3)
	require.ErrorIs(t, err, combin.ErrInvalidArgs)

	_, err = combin.New(0, 0)
	require.ErrorIs(t, err, combin.ErrInvalidArgs)

	_, err = combin.New(3, -1)
	require.ErrorIs(t, err, combin.ErrInvalidArgs)
}

func TestGenerator_FiveChooseTwo(t *testing.T) {
	t.Parallel()

	g, err := combin.New(5, 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), g.Total())

	got := collect(g)
	assert.Equal(t, [][]int{
		{0, 1}, {0, 2}, {0, 3}, {0, 4},
		{1, 2}, {1, 3}, {1, 4},
		{2, 3}, {2, 4},
		{3, 4},
	}, got)
	assert.False(t, g.HasMore())
	assert.Nil(t, g.Next())
	assert.Equal(t, 0, g.Remaining().Sign())
}

func TestGenerator_Reset(t *testing.T) {
	t.Parallel()

	g, err := combin.New(4, 3)
	require.NoError(t, err)

	first := collect(g)
	require.Len(t, first, 4)

	g.Reset()
	assert.Equal(t, first, collect(g))
}

func TestGenerator_LargeTotal(t *testing.T) {
	t.Parallel()

	g, err := combin.New(100, 50)
	require.NoError(t, err)

	want, ok := new(big.Int).SetString("100891344545564193334812497256", 10)
	require.True(t, ok)
	assert.Equal(t, 0, want.Cmp(g.Total()))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, g.Next()[:5])
}

func TestGenerator_FullSet(t *testing.T) {
	t.Parallel()

	g, err := combin.New(3, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}}, collect(g))
}

func TestRolePairs(t *testing.T) {
	t.Parallel()

	pairs, err := combin.NewRolePairs([]string{"i1", "i2"}, []string{"f1"})
	require.NoError(t, err)

	var raw [][2]string

	for pairs.HasNext() {
		introducer, issue := pairs.Next()
		raw = append(raw, [2]string{introducer, issue})
	}

	// (i1,i2) shares a role and comes back empty.
	assert.Equal(t, [][2]string{{"", ""}, {"i1", "f1"}, {"i2", "f1"}}, raw)
}

func TestRolePairs_All(t *testing.T) {
	t.Parallel()

	pairs, err := combin.NewRolePairs([]string{"a", "b"}, []string{"x", "y"})
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"a", "x"}, {"a", "y"}, {"b", "x"}, {"b", "y"}}, pairs.All())
}

func TestRolePairs_TooFew(t *testing.T) {
	t.Parallel()

	_, err := combin.NewRolePairs([]string{"a"}, nil)
	require.ErrorIs(t, err, combin.ErrInvalidArgs)
}
