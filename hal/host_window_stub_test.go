//go:build !tinygo && !cgo

package hal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWindowNeedsCgo(t *testing.T) {
	err := RunWindow(func(HAL) func() error { return nil }, HostConfig{})
	require.ErrorIs(t, err, ErrNotImplemented)
}
