//go:build linux

package transport

import (
	goerrors "errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// restrictMulticastDelivery clears IP_MULTICAST_ALL. Linux otherwise hands a
// socket bound to 0.0.0.0 every datagram for any group joined by any socket
// on the host, on any interface, which defeats WithInterfaces.
func restrictMulticastDelivery(fd int) error {
	err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_ALL, 0)
	if err != nil && !goerrors.Is(err, unix.ENOPROTOOPT) {
		return fmt.Errorf("clear IP_MULTICAST_ALL: %w", err)
	}
	return nil
}
