//go:build linux || darwin

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseportControl sets SO_REUSEPORT on the raw socket before it is
// bound, so this factory's reserved port can be rebound by a fresh
// socket on every dial.
func reuseportControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return fmt.Errorf("raw conn control failed: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("unable to set SO_REUSEPORT: %w", sockErr)
	}
	return nil
}
