//go:build windows

package transport

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// setSocketOptions enables SO_REUSEADDR. Windows has no SO_REUSEPORT; on
// Windows SO_REUSEADDR already permits several sockets on 5353.
func setSocketOptions(fd uintptr) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("set SO_REUSEADDR: %w", err)
	}
	return nil
}
