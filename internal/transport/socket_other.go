//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package transport

// setSocketOptions is a no-op where port reuse options are unavailable; the
// bind then fails if another process owns 5353.
func setSocketOptions(uintptr) error {
	return nil
}
