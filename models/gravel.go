package models

import (
	"errors"
	"fmt"
)

// Grid defaults for the classic Schotter layout: 22 rows of 12 stones, 30px per cell.
const (
	DEFAULT_ROWS       = 22
	DEFAULT_COLS       = 12
	DEFAULT_CELL_SIZE  = 30
	DEFAULT_MARGIN     = 35
	DEFAULT_LINE_WIDTH = 0.06
)

// GridConfig fixes the shape of the grid and the canvas it is drawn on.
// LineWidth is in grid units, e.g. a fraction of a cell, not pixels.
type GridConfig struct {
	Rows      int     `mapstructure:"rows" yaml:"rows"`
	Cols      int     `mapstructure:"cols" yaml:"cols"`
	CellSize  int     `mapstructure:"cell_size" yaml:"cell_size"`
	Margin    int     `mapstructure:"margin" yaml:"margin"`
	LineWidth float64 `mapstructure:"line_width" yaml:"line_width"`
}

// DefaultGridConfig returns the 22x12 layout.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Rows:      DEFAULT_ROWS,
		Cols:      DEFAULT_COLS,
		CellSize:  DEFAULT_CELL_SIZE,
		Margin:    DEFAULT_MARGIN,
		LineWidth: DEFAULT_LINE_WIDTH,
	}
}

// Width is the canvas width in pixels.
func (cfg GridConfig) Width() int {
	return cfg.Cols*cfg.CellSize + 2*cfg.Margin
}

// Height is the canvas height in pixels.
func (cfg GridConfig) Height() int {
	return cfg.Rows*cfg.CellSize + 2*cfg.Margin
}

// ErrInvalidGrid is returned by Validate for grids that cannot be drawn.
var ErrInvalidGrid = errors.New("invalid grid config")

func (cfg GridConfig) Validate() error {
	switch {
	case cfg.Rows <= 0 || cfg.Cols <= 0:
		return fmt.Errorf("%w: rows and cols must be positive, got %dx%d", ErrInvalidGrid, cfg.Rows, cfg.Cols)
	case cfg.CellSize <= 0:
		return fmt.Errorf("%w: cell size must be positive, got %d", ErrInvalidGrid, cfg.CellSize)
	case cfg.Margin < 0:
		return fmt.Errorf("%w: negative margin %d", ErrInvalidGrid, cfg.Margin)
	case cfg.LineWidth < 0:
		return fmt.Errorf("%w: negative line width %f", ErrInvalidGrid, cfg.LineWidth)
	}
	return nil
}

// Cell is a fixed grid coordinate. Row 0 is the top of the canvas.
type Cell struct {
	Col, Row int
}

// Perturbation is the displacement (in grid units) and rotation (in radians)
// applied to a stone when drawn.
type Perturbation struct {
	DX, DY   float64
	Rotation float64
}

// IsZero reports whether the perturbation leaves the stone exactly on its cell.
func (p Perturbation) IsZero() bool {
	return p.DX == 0 && p.DY == 0 && p.Rotation == 0
}

// Stone is a single drawable square of gravel: its cell and the latest perturbation computed for it.
type Stone struct {
	Cell
	Perturbation
}

// Gravel is the full set of stones, stored row-major: row 0 first, col 0 first within a row.
// The row-major order is load-bearing: perturbations consume random values in this order,
// so any traversal that feeds a random source must go through VisitStones.
type Gravel struct {
	Rows, Cols int
	Stones     []Stone
}

// NewGravel populates every cell of the grid once, unperturbed.
func NewGravel(cfg GridConfig) (gravel Gravel) {
	gravel = Gravel{
		Rows:   cfg.Rows,
		Cols:   cfg.Cols,
		Stones: make([]Stone, 0, cfg.Rows*cfg.Cols),
	}
	for row := 0; row < cfg.Rows; row++ {
		for col := 0; col < cfg.Cols; col++ {
			gravel.Stones = append(gravel.Stones, Stone{
				Cell: Cell{Col: col, Row: row},
			})
		}
	}
	return
}

// Len returns the number of stones.
func (g Gravel) Len() int {
	return len(g.Stones)
}

// At returns the stone at the passed cell, or nil if the cell lies outside the grid.
func (g Gravel) At(col, row int) *Stone {
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return nil
	}
	return &g.Stones[row*g.Cols+col]
}

// VisitStones visits every stone in row-major order. The passed func may update the stone in place.
func (g Gravel) VisitStones(fn func(stone *Stone)) {
	for i := range g.Stones {
		fn(&g.Stones[i])
	}
}

// Clone returns a deep copy, for handing the gravel to readers on other goroutines.
func (g Gravel) Clone() Gravel {
	stones := make([]Stone, len(g.Stones))
	copy(stones, g.Stones)
	return Gravel{
		Rows:   g.Rows,
		Cols:   g.Cols,
		Stones: stones,
	}
}
