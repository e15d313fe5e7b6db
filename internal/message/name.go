// Package message implements the narrow slice of the DNS wire format the
// resolver needs: encoding a single A-record question and walking a response
// to the first A record.
//
// RFC 1035 §3.1: names are sequences of length-prefixed labels.
// RFC 1035 §4.1.4: names inside a message may be compressed with pointers.
package message

import (
	"fmt"
	"strings"

	"github.com/xfalcon/localresolve/internal/errors"
	"github.com/xfalcon/localresolve/internal/protocol"
)

// NormalizeHostname returns hostname with a single trailing ".local" label.
//
// A trailing dot is dropped first, so "printer.local." and "printer.local"
// normalize to the same name. The suffix match is case-insensitive because
// DNS names are (RFC 1035 §2.3.3); the caller's spelling is kept.
//
// Example:
//
//	NormalizeHostname("zwift")       // "zwift.local"
//	NormalizeHostname("zwift.local") // "zwift.local"
func NormalizeHostname(hostname string) string {
	name := strings.TrimSuffix(hostname, ".")
	suffix := "." + protocol.LocalDomain
	if len(name) >= len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
		return name
	}
	return name + suffix
}

// EncodeName encodes a dotted name into wire format per RFC 1035 §3.1.
//
// The root name ("" or ".") encodes to a single zero byte. Every other name
// is validated before any byte is produced:
//   - no empty labels ("a..local")
//   - each label at most 63 bytes
//   - the encoded name at most 255 bytes
//
// Label bytes are copied unchanged; no character set is enforced.
// Violations return a *errors.ValidationError; nothing is ever truncated.
func EncodeName(name string) ([]byte, error) {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return []byte{0}, nil
	}

	labels := strings.Split(name, ".")
	size := 1
	for _, label := range labels {
		if err := validateLabel(name, label); err != nil {
			return nil, err
		}
		size += len(label) + 1
	}

	if size > protocol.MaxNameLength {
		return nil, &errors.ValidationError{
			Field:   "hostname",
			Value:   name,
			Message: fmt.Sprintf("encoded name is %d bytes, exceeds maximum %d bytes per RFC 1035 §3.1", size, protocol.MaxNameLength),
		}
	}

	encoded := make([]byte, 0, size)
	for _, label := range labels {
		encoded = append(encoded, byte(len(label)))
		encoded = append(encoded, label...)
	}
	return append(encoded, 0), nil
}

func validateLabel(name, label string) error {
	if label == "" {
		return &errors.ValidationError{
			Field:   "hostname",
			Value:   name,
			Message: "empty label",
		}
	}

	if len(label) > protocol.MaxLabelLength {
		return &errors.ValidationError{
			Field:   "hostname",
			Value:   name,
			Message: fmt.Sprintf("label %q is %d bytes, exceeds maximum length %d bytes per RFC 1035 §3.1", label, len(label), protocol.MaxLabelLength),
		}
	}

	return nil
}

// SkipName advances past the name starting at offset and returns the offset
// of the first byte after it.
//
// An uncompressed name is walked label by label up to its zero terminator.
// A compression pointer (first byte 0xC0-0xFF) ends the name after exactly
// two bytes; the pointer target is never visited, so a looping pointer cannot
// trap the walk. Length bytes 0x40-0xBF are reserved (RFC 6891 §5) and
// rejected.
//
// Every read is bounds checked; a truncated name yields *errors.WireFormatError.
func SkipName(msg []byte, offset int) (int, error) {
	if offset < 0 || offset >= len(msg) {
		return 0, &errors.WireFormatError{
			Operation: "skip name",
			Offset:    offset,
			Message:   "offset out of bounds",
		}
	}

	pos := offset
	for {
		if pos >= len(msg) {
			return 0, &errors.WireFormatError{
				Operation: "skip name",
				Offset:    pos,
				Message:   "name missing terminator",
			}
		}

		length := int(msg[pos])
		switch {
		case length == 0:
			return pos + 1, nil

		case length&protocol.CompressionMask == protocol.CompressionMask:
			if pos+2 > len(msg) {
				return 0, &errors.WireFormatError{
					Operation: "skip name",
					Offset:    pos,
					Message:   "truncated compression pointer",
				}
			}
			return pos + 2, nil

		case length&protocol.CompressionMask != 0:
			return 0, &errors.WireFormatError{
				Operation: "skip name",
				Offset:    pos,
				Message:   fmt.Sprintf("reserved label type 0x%02X", length),
			}
		}

		if pos+1+length > len(msg) {
			return 0, &errors.WireFormatError{
				Operation: "skip name",
				Offset:    pos,
				Message:   "truncated label",
			}
		}
		pos += 1 + length
	}
}
