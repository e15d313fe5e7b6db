package message

import (
	"encoding/binary"
	goerrors "errors"
	"fmt"
	"net/netip"

	"github.com/xfalcon/localresolve/internal/errors"
	"github.com/xfalcon/localresolve/internal/protocol"
)

// ErrNoAnswer is returned by FirstA when a well-formed message carries no
// usable A record.
var ErrNoAnswer = goerrors.New("no A record in answer section")

// FirstA returns the address of the first A record in the answer section of
// msg.
//
// The question section is skipped, then answers are walked in order. Records
// of any other type, and A records whose RDLENGTH is not 4, are stepped over,
// so an AAAA or NSEC answer in front of the A record does not hide it.
// Answer names are skipped with SkipName; compression pointers are never
// followed.
//
// A message shorter than the header, or any field that would read past the
// end of msg, yields *errors.WireFormatError. A message with ANCOUNT=0 or
// without any A answer yields ErrNoAnswer.
func FirstA(msg []byte) (netip.Addr, error) {
	if len(msg) < protocol.HeaderSize {
		return netip.Addr{}, &errors.WireFormatError{
			Operation: "read header",
			Offset:    0,
			Message:   fmt.Sprintf("message is %d bytes, shorter than %d byte header", len(msg), protocol.HeaderSize),
		}
	}

	qdCount := int(binary.BigEndian.Uint16(msg[protocol.OffsetQDCount:]))
	anCount := int(binary.BigEndian.Uint16(msg[protocol.OffsetANCount:]))
	if anCount == 0 {
		return netip.Addr{}, ErrNoAnswer
	}

	offset := protocol.HeaderSize
	var err error

	for i := 0; i < qdCount; i++ {
		offset, err = SkipName(msg, offset)
		if err != nil {
			return netip.Addr{}, err
		}
		if offset+protocol.QuestionTrailerSize > len(msg) {
			return netip.Addr{}, &errors.WireFormatError{
				Operation: "skip question",
				Offset:    offset,
				Message:   "truncated question type/class",
			}
		}
		offset += protocol.QuestionTrailerSize
	}

	for i := 0; i < anCount; i++ {
		offset, err = SkipName(msg, offset)
		if err != nil {
			return netip.Addr{}, err
		}
		if offset+protocol.RRFixedSize > len(msg) {
			return netip.Addr{}, &errors.WireFormatError{
				Operation: "read answer header",
				Offset:    offset,
				Message:   "truncated resource record",
			}
		}

		rrType := protocol.RecordType(binary.BigEndian.Uint16(msg[offset:]))
		rdLength := int(binary.BigEndian.Uint16(msg[offset+8:]))
		offset += protocol.RRFixedSize

		if offset+rdLength > len(msg) {
			return netip.Addr{}, &errors.WireFormatError{
				Operation: "read answer data",
				Offset:    offset,
				Message:   fmt.Sprintf("RDLENGTH %d exceeds remaining %d bytes", rdLength, len(msg)-offset),
			}
		}

		if rrType == protocol.RecordTypeA && rdLength == protocol.IPv4Len {
			return netip.AddrFrom4([4]byte(msg[offset : offset+protocol.IPv4Len])), nil
		}
		offset += rdLength
	}

	return netip.Addr{}, ErrNoAnswer
}

// ParseA is FirstA for callers that only care whether an address was found.
// It never panics, whatever msg contains.
func ParseA(msg []byte) (netip.Addr, bool) {
	addr, err := FirstA(msg)
	return addr, err == nil
}
