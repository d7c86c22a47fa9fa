// Package occupancy holds the binary obstacle grid the planner checks against. World x runs
// along grid rows and world y along grid columns; each cell index names the cell centre, so a
// world coordinate maps to the nearest index.
package occupancy

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// DefaultResolution is the cell size in meters of the reference maps.
const DefaultResolution = 0.05

// Origin is the (fractional) cell index of the world origin. A nil *Origin means the map is
// centred on the world origin.
type Origin struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// CenteredOrigin returns the origin that places the world origin at the centre of a rows x cols grid.
func CenteredOrigin(rows, cols int) Origin {
	return Origin{Row: float64(rows)/2 - 0.5, Col: float64(cols)/2 - 0.5}
}

// Map is an immutable binary occupancy grid.
type Map struct {
	rows, cols int
	occupied   []bool
	resolution float64
	origin     Origin
}

// New returns a map backed by occupied, which is laid out row-major and must hold rows*cols
// cells. The slice is copied.
func New(rows, cols int, occupied []bool, resolution float64, origin *Origin) (*Map, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("map dimensions must be positive, got %dx%d", rows, cols)
	}
	if len(occupied) != rows*cols {
		return nil, errors.Errorf("map data holds %d cells, expected %d", len(occupied), rows*cols)
	}
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return nil, errors.Errorf("map resolution must be positive and finite, got %v", resolution)
	}
	o := CenteredOrigin(rows, cols)
	if origin != nil {
		o = *origin
	}
	cells := make([]bool, len(occupied))
	copy(cells, occupied)
	return &Map{rows: rows, cols: cols, occupied: cells, resolution: resolution, origin: o}, nil
}

// NewEmpty returns a map with no obstacles.
func NewEmpty(rows, cols int, resolution float64, origin *Origin) (*Map, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("map dimensions must be positive, got %dx%d", rows, cols)
	}
	return New(rows, cols, make([]bool, rows*cols), resolution, origin)
}

// Rows returns the number of grid rows.
func (m *Map) Rows() int { return m.rows }

// Cols returns the number of grid columns.
func (m *Map) Cols() int { return m.cols }

// Resolution returns the cell size in meters.
func (m *Map) Resolution() float64 { return m.resolution }

// Origin returns the cell index of the world origin.
func (m *Map) Origin() Origin { return m.origin }

// WorldToCell returns the index of the cell containing the world point (x, y). The index may be
// outside the grid.
func (m *Map) WorldToCell(x, y float64) (row, col int) {
	return int(math.Floor(x/m.resolution + m.origin.Row + 0.5)), int(math.Floor(y/m.resolution + m.origin.Col + 0.5))
}

// CellToWorld returns the world coordinates of the centre of a cell.
func (m *Map) CellToWorld(row, col int) (x, y float64) {
	return (float64(row) - m.origin.Row) * m.resolution, (float64(col) - m.origin.Col) * m.resolution
}

// InBounds reports whether a cell index lies inside the grid.
func (m *Map) InBounds(row, col int) bool {
	return row >= 0 && row < m.rows && col >= 0 && col < m.cols
}

// CellOccupied reports whether a cell is an obstacle. Cells outside the grid are occupied.
func (m *Map) CellOccupied(row, col int) bool {
	if !m.InBounds(row, col) {
		return true
	}
	return m.occupied[row*m.cols+col]
}

// IsOccupied reports whether the world point (x, y) lies in an obstacle. Points outside the
// grid, and non-finite points, are occupied.
func (m *Map) IsOccupied(x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return true
	}
	return m.CellOccupied(m.WorldToCell(x, y))
}

// Bounds returns the world rectangle covered by the grid, out to the outer cell edges. Lo.X and
// Hi.X span the rows, Lo.Y and Hi.Y the columns.
func (m *Map) Bounds() r2.Rect {
	x0, y0 := m.CellToWorld(0, 0)
	x1, y1 := m.CellToWorld(m.rows-1, m.cols-1)
	half := m.resolution / 2
	return r2.RectFromPoints(r2.Point{X: x0 - half, Y: y0 - half}, r2.Point{X: x1 + half, Y: y1 + half})
}

// OccupiedCount returns the number of occupied cells.
func (m *Map) OccupiedCount() int {
	count := 0
	for _, occ := range m.occupied {
		if occ {
			count++
		}
	}
	return count
}

// Inflate returns a new map in which every cell within margin cells of an obstacle, along rows
// and columns independently, is also an obstacle. The receiver is not modified.
func (m *Map) Inflate(margin int) (*Map, error) {
	if margin < 0 {
		return nil, errors.Errorf("inflation margin must not be negative, got %d", margin)
	}
	inflated := &Map{
		rows:       m.rows,
		cols:       m.cols,
		occupied:   make([]bool, len(m.occupied)),
		resolution: m.resolution,
		origin:     m.origin,
	}
	if margin == 0 {
		copy(inflated.occupied, m.occupied)
		return inflated, nil
	}

	// dilate along columns then along rows; the composition is the square neighbourhood
	horizontal := make([]bool, len(m.occupied))
	for r := 0; r < m.rows; r++ {
		dilateLine(m.occupied[r*m.cols:(r+1)*m.cols], horizontal[r*m.cols:(r+1)*m.cols], 1, margin)
	}
	for c := 0; c < m.cols; c++ {
		dilateLine(horizontal[c:], inflated.occupied[c:], m.cols, margin)
	}
	return inflated, nil
}

// dilateLine marks dst[i*stride] when any src[j*stride] with |i-j| <= margin is set. Both
// slices start at the first element of the line.
func dilateLine(src, dst []bool, stride, margin int) {
	n := (len(src)-1)/stride + 1
	last := -margin - 1
	for i := 0; i < n; i++ {
		if src[i*stride] {
			last = i
		}
		if i-last <= margin {
			dst[i*stride] = true
		}
	}
	last = n + margin + 1
	for i := n - 1; i >= 0; i-- {
		if src[i*stride] {
			last = i
		}
		if last-i <= margin {
			dst[i*stride] = true
		}
	}
}

// Image renders the grid as grayscale: obstacles black, free space white. Image row r is grid
// row r.
func (m *Map) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.cols, m.rows))
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			v := color.Gray{Y: 255}
			if m.occupied[r*m.cols+c] {
				v = color.Gray{Y: 0}
			}
			img.SetGray(c, r, v)
		}
	}
	return img
}
