// board/board.go
package board

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSize = errors.New("board: invalid size or obstacle count")
	ErrBadLayout   = errors.New("board: malformed layout")
)

// Terrain is the tag of a single grid cell.
type Terrain uint8

const (
	Free Terrain = iota
	Obstacle
	Tunnel
)

// Symbol is the one-character wire form of a terrain tag.
func (t Terrain) Symbol() string {
	switch t {
	case Obstacle:
		return "X"
	case Tunnel:
		return "T"
	default:
		return "0"
	}
}

func (t Terrain) String() string {
	switch t {
	case Obstacle:
		return "obstacle"
	case Tunnel:
		return "tunnel"
	default:
		return "free"
	}
}

// Traversable reports whether a piece may ever stand on the cell.
func (t Terrain) Traversable() bool {
	return t != Obstacle
}

// Cell is a (row, column) coordinate.
type Cell struct {
	R int `json:"r"`
	C int `json:"c"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.R, c.C)
}

// Neighbors returns the four orthogonal neighbours, possibly out of bounds.
func (c Cell) Neighbors() [4]Cell {
	return [4]Cell{
		{c.R + 1, c.C},
		{c.R - 1, c.C},
		{c.R, c.C + 1},
		{c.R, c.C - 1},
	}
}

// Adjacent reports whether a and b differ by exactly one step in a single axis.
func Adjacent(a, b Cell) bool {
	dr, dc := abs(a.R-b.R), abs(a.C-b.C)
	return dr+dc == 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Board is an immutable N×N terrain grid with exactly one tunnel.
type Board struct {
	size   int
	cells  []Terrain // row-major
	tunnel Cell
}

// FromRows builds a board from rows of symbols ('0' free, 'X' obstacle, 'T' tunnel).
// It does not require connectivity; use Connected for that.
func FromRows(rows ...string) (*Board, error) {
	n := len(rows)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d rows", ErrBadLayout, n)
	}
	b := &Board{size: n, cells: make([]Terrain, n*n)}
	tunnels := 0
	for r, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadLayout, r, len(row), n)
		}
		for c, ch := range row {
			switch ch {
			case '0', '.':
				b.cells[r*n+c] = Free
			case 'X':
				b.cells[r*n+c] = Obstacle
			case 'T':
				b.cells[r*n+c] = Tunnel
				b.tunnel = Cell{r, c}
				tunnels++
			default:
				return nil, fmt.Errorf("%w: unknown symbol %q at (%d,%d)", ErrBadLayout, ch, r, c)
			}
		}
	}
	if tunnels != 1 {
		return nil, fmt.Errorf("%w: %d tunnels", ErrBadLayout, tunnels)
	}
	return b, nil
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) Tunnel() Cell {
	return b.tunnel
}

func (b *Board) InBounds(c Cell) bool {
	return c.R >= 0 && c.R < b.size && c.C >= 0 && c.C < b.size
}

// At returns the terrain of c; cells outside the grid read as Obstacle.
func (b *Board) At(c Cell) Terrain {
	if !b.InBounds(c) {
		return Obstacle
	}
	return b.cells[c.R*b.size+c.C]
}

// Count returns how many cells carry the terrain tag t.
func (b *Board) Count(t Terrain) int {
	n := 0
	for _, v := range b.cells {
		if v == t {
			n++
		}
	}
	return n
}

// Cells returns every cell with terrain t in row-major order.
func (b *Board) Cells(t Terrain) []Cell {
	var out []Cell
	for i, v := range b.cells {
		if v == t {
			out = append(out, Cell{i / b.size, i % b.size})
		}
	}
	return out
}

// Symbols renders the grid in wire form.
func (b *Board) Symbols() [][]string {
	rows := make([][]string, b.size)
	for r := range rows {
		rows[r] = make([]string, b.size)
		for c := range rows[r] {
			rows[r][c] = b.cells[r*b.size+c].Symbol()
		}
	}
	return rows
}

// Connected reports whether every traversable cell is reachable from every other one
// under 4-directional moves.
func (b *Board) Connected() bool {
	var start = -1
	total := 0
	for i, v := range b.cells {
		if v.Traversable() {
			if start < 0 {
				start = i
			}
			total++
		}
	}
	if start < 0 {
		return false
	}

	seen := make([]bool, len(b.cells))
	seen[start] = true
	queue := []Cell{{start / b.size, start % b.size}}
	visited := 1
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range cur.Neighbors() {
			if !b.InBounds(next) {
				continue
			}
			idx := next.R*b.size + next.C
			if seen[idx] || !b.cells[idx].Traversable() {
				continue
			}
			seen[idx] = true
			visited++
			queue = append(queue, next)
		}
	}
	return visited == total
}
