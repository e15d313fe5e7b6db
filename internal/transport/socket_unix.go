//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package transport

import (
	goerrors "errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// setSocketOptions enables SO_REUSEADDR and SO_REUSEPORT so the resolver can
// bind 5353 next to a system mDNS responder, then limits group delivery to
// the memberships this socket joined itself.
//
// SO_REUSEPORT is missing on some older kernels (ENOPROTOOPT); that is not
// fatal because SO_REUSEADDR alone allows multicast port sharing there.
func setSocketOptions(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("set SO_REUSEADDR: %w", err)
	}

	err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	if err != nil && !goerrors.Is(err, unix.ENOPROTOOPT) {
		return fmt.Errorf("set SO_REUSEPORT: %w", err)
	}

	return restrictMulticastDelivery(int(fd))
}
