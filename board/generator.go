// board/generator.go
package board

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrUnreachable means no connected layout was found within the attempt budget.
var ErrUnreachable = errors.New("board: no connected layout found")

// Layout is a fresh board with both pieces placed and the first mover drawn.
type Layout struct {
	Board       *Board
	Warden      Cell
	Prisoner    Cell
	WardenFirst bool
	// Attempts is the number of candidate boards sampled to find Board.
	Attempts int
}

// Generator samples random boards. It is not safe for concurrent use.
type Generator struct {
	size        int
	obstacles   int
	maxAttempts int
	rng         *rand.Rand
}

func NewGenerator(size, obstacles, maxAttempts int, rng *rand.Rand) (*Generator, error) {
	if size < 2 || obstacles < 0 || obstacles > size*size-3 || maxAttempts <= 0 {
		return nil, fmt.Errorf("%w: size=%d obstacles=%d attempts=%d",
			ErrInvalidSize, size, obstacles, maxAttempts)
	}
	return &Generator{
		size:        size,
		obstacles:   obstacles,
		maxAttempts: maxAttempts,
		rng:         rng,
	}, nil
}

func (g *Generator) Size() int {
	return g.size
}

// Generate samples candidates until one is connected, then places the pieces.
func (g *Generator) Generate() (Layout, error) {
	b, attempts, err := firstConnected(g.maxAttempts, g.candidate)
	if err != nil {
		return Layout{Attempts: attempts}, err
	}
	layout := g.Place(b)
	layout.Attempts = attempts
	return layout, nil
}

// Place puts both pieces on two distinct free cells (never the tunnel) and draws the first mover.
func (g *Generator) Place(b *Board) Layout {
	free := b.Cells(Free)
	pick := g.rng.Perm(len(free))
	return Layout{
		Board:       b,
		Warden:      free[pick[0]],
		Prisoner:    free[pick[1]],
		WardenFirst: g.rng.Intn(2) == 0,
	}
}

// candidate draws obstacle cells uniformly without replacement and puts the tunnel
// on one of the remaining cells.
func (g *Generator) candidate() *Board {
	n := g.size * g.size
	b := &Board{size: g.size, cells: make([]Terrain, n)}
	order := g.rng.Perm(n)
	for _, idx := range order[:g.obstacles] {
		b.cells[idx] = Obstacle
	}
	t := order[g.obstacles]
	b.cells[t] = Tunnel
	b.tunnel = Cell{t / g.size, t % g.size}
	return b
}

func firstConnected(maxAttempts int, sample func() *Board) (*Board, int, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if b := sample(); b.Connected() {
			return b, attempt, nil
		}
	}
	return nil, maxAttempts, fmt.Errorf("%w after %d attempts", ErrUnreachable, maxAttempts)
}
