package message

import (
	"encoding/binary"

	"github.com/xfalcon/localresolve/internal/errors"
	"github.com/xfalcon/localresolve/internal/protocol"
)

// BuildQuery returns the wire-format query asking for the A record of
// hostname.
//
// The hostname is normalized with NormalizeHostname first, so "zwift" and
// "zwift.local" produce identical messages.
//
// Wire format (RFC 1035 §4.1):
//
//	+---------------------+
//	| Header (12 bytes)   |  ID=0, flags=0, QDCOUNT=1, AN/NS/ARCOUNT=0
//	+---------------------+
//	| QNAME               |  length-prefixed labels, zero terminated
//	+---------------------+
//	| QTYPE  = 1 (A)      |
//	| QCLASS = 1 (IN)     |
//	+---------------------+
//
// ID=0 follows RFC 6762 §18.1 for multicast queries. The QU bit is not set,
// so responders answer on the multicast group.
func BuildQuery(hostname string) ([]byte, error) {
	if hostname == "" {
		return nil, &errors.ValidationError{
			Field:   "hostname",
			Value:   hostname,
			Message: "cannot be empty",
		}
	}

	name, err := EncodeName(NormalizeHostname(hostname))
	if err != nil {
		return nil, err
	}

	msg := make([]byte, protocol.HeaderSize, protocol.HeaderSize+len(name)+protocol.QuestionTrailerSize)
	binary.BigEndian.PutUint16(msg[protocol.OffsetQDCount:], 1)

	msg = append(msg, name...)
	msg = binary.BigEndian.AppendUint16(msg, uint16(protocol.RecordTypeA))
	msg = binary.BigEndian.AppendUint16(msg, protocol.ClassIN)

	return msg, nil
}
