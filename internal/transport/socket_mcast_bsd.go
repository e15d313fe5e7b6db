//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package transport

// restrictMulticastDelivery is a no-op: BSD stacks only deliver group traffic
// to sockets holding a matching membership.
func restrictMulticastDelivery(int) error {
	return nil
}
