//go:build windows

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// reuseportControl sets SO_REUSEADDR on the raw socket before it is
// bound. Windows has no SO_REUSEPORT; SO_REUSEADDR permits multiple
// sockets to bind the same local address there.
func reuseportControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
	})
	if err != nil {
		return fmt.Errorf("raw conn control failed: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("unable to set SO_REUSEADDR: %w", sockErr)
	}
	return nil
}
