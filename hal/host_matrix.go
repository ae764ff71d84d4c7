//go:build !tinygo

package hal

import "sync"

const (
	matrixRows = 5
	matrixCols = 5
)

// HostMatrix models the LED matrix drive lines. Each row latches the columns it was last
// energised with, which is what a viewer sees while the scanner is running.
type HostMatrix struct {
	mu     sync.Mutex
	cols   uint8
	row    int
	latch  [matrixRows]uint8
	blanks int
}

// NewHostMatrix returns a dark 5x5 matrix.
func NewHostMatrix() *HostMatrix {
	return &HostMatrix{row: -1}
}

func (m *HostMatrix) Rows() int { return matrixRows }
func (m *HostMatrix) Cols() int { return matrixCols }

func (m *HostMatrix) Blank() {
	m.mu.Lock()
	m.cols = 0
	m.row = -1
	m.blanks++
	m.mu.Unlock()
}

func (m *HostMatrix) SetColumns(mask uint8) {
	m.mu.Lock()
	m.cols = mask & (1<<matrixCols - 1)
	if m.row >= 0 {
		m.latch[m.row] = m.cols
	}
	m.mu.Unlock()
}

func (m *HostMatrix) EnableRow(row int) {
	if row < 0 || row >= matrixRows {
		return
	}
	m.mu.Lock()
	m.row = row
	m.latch[row] = m.cols
	m.mu.Unlock()
}

// Snapshot returns the latched column mask of every row.
func (m *HostMatrix) Snapshot() [matrixRows]uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latch
}

// Lit reports whether the LED at (x, y) is latched on.
func (m *HostMatrix) Lit(x, y int) bool {
	if x < 0 || x >= matrixCols || y < 0 || y >= matrixRows {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latch[y]&(1<<x) != 0
}

// Scans returns how many times the matrix has been blanked.
func (m *HostMatrix) Scans() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blanks
}
