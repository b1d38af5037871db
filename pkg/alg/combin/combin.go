// Package combin enumerates r-combinations of n indices in lexicographic order
// and pairs revision roles for partial-fix analysis.
package combin

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidArgs is returned when r exceeds n or n is below one.
var ErrInvalidArgs = errors.New("invalid combination arguments")

// Generator yields every combination of r indices out of [0, n).
type Generator struct {
	n, r      int
	current   []int
	remaining *big.Int
	total     *big.Int
}

// New creates a generator over C(n, r) combinations.
func New(n, r int) (*Generator, error) {
	if r > n {
		return nil, fmt.Errorf("%w: r=%d exceeds n=%d", ErrInvalidArgs, r, n)
	}

	if n < 1 {
		return nil, fmt.Errorf("%w: n=%d must be at least 1", ErrInvalidArgs, n)
	}

	if r < 0 {
		return nil, fmt.Errorf("%w: r=%d is negative", ErrInvalidArgs, r)
	}

	g := &Generator{n: n, r: r, current: make([]int, r)}
	g.total = binomial(n, r)
	g.Reset()

	return g, nil
}

// binomial returns n!/(r!(n-r)!).
func binomial(n, r int) *big.Int {
	num := factorial(n)
	den := new(big.Int).Mul(factorial(r), factorial(n-r))

	return num.Div(num, den)
}

func factorial(n int) *big.Int {
	fact := big.NewInt(1)
	for i := 2; i <= n; i++ {
		fact.Mul(fact, big.NewInt(int64(i)))
	}

	return fact
}

// Reset restarts the enumeration.
func (g *Generator) Reset() {
	for i := range g.current {
		g.current[i] = i
	}

	g.remaining = new(big.Int).Set(g.total)
}

// Total returns the number of combinations.
func (g *Generator) Total() *big.Int {
	return new(big.Int).Set(g.total)
}

// Remaining returns the number of combinations not yet produced.
func (g *Generator) Remaining() *big.Int {
	return new(big.Int).Set(g.remaining)
}

// HasMore reports whether Next will produce another combination.
func (g *Generator) HasMore() bool {
	return g.remaining.Sign() > 0
}

// Next returns the next combination in lexicographic order. The returned slice
// is reused by later calls. Calling Next when HasMore is false returns nil.
func (g *Generator) Next() []int {
	if !g.HasMore() {
		return nil
	}

	if g.remaining.Cmp(g.total) != 0 {
		i := g.r - 1
		for g.current[i] == g.n-g.r+i {
			i--
		}

		g.current[i]++

		for j := i + 1; j < g.r; j++ {
			g.current[j] = g.current[i] + j - i
		}
	}

	g.remaining.Sub(g.remaining, big.NewInt(1))

	return g.current
}
