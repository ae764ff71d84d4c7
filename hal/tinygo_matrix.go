//go:build tinygo && nrf52833

package hal

import "machine"

// pinMatrix drives the V2 5x5 matrix: rows are active high, columns active low.
type pinMatrix struct {
	rows [matrixRows]machine.Pin
	cols [matrixCols]machine.Pin
}

const (
	matrixRows = 5
	matrixCols = 5
)

func newPinMatrix() *pinMatrix {
	m := &pinMatrix{
		rows: [matrixRows]machine.Pin{machine.P0_21, machine.P0_22, machine.P0_15, machine.P0_24, machine.P0_19},
		cols: [matrixCols]machine.Pin{machine.P0_28, machine.P0_11, machine.P0_31, machine.P1_05, machine.P0_30},
	}
	for _, p := range m.rows {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	for _, p := range m.cols {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	m.Blank()
	return m
}

func (m *pinMatrix) Rows() int { return matrixRows }
func (m *pinMatrix) Cols() int { return matrixCols }

func (m *pinMatrix) Blank() {
	for _, p := range m.rows {
		p.Low()
	}
	for _, p := range m.cols {
		p.High()
	}
}

func (m *pinMatrix) SetColumns(mask uint8) {
	for x, p := range m.cols {
		p.Set(mask&(1<<x) == 0)
	}
}

func (m *pinMatrix) EnableRow(row int) {
	if row >= 0 && row < matrixRows {
		m.rows[row].High()
	}
}
