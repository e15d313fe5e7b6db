// Package protocol defines the wire-level constants shared by the mDNS query
// path: the multicast group, the port, DNS header layout, and the record
// types and classes the resolver reads or skips.
//
// RFC 6762 §5: mDNS uses UDP port 5353 and multicast address 224.0.0.251.
// RFC 1035 §4.1: DNS message format.
package protocol

import "strconv"

const (
	// MulticastAddrIPv4 is the IPv4 mDNS group per RFC 6762 §5.
	MulticastAddrIPv4 = "224.0.0.251"

	// Port is the mDNS UDP port per RFC 6762 §5.
	Port = 5353

	// HeaderSize is the fixed DNS header length per RFC 1035 §4.1.1.
	HeaderSize = 12

	// MaxLabelLength is the longest label allowed by RFC 1035 §3.1.
	MaxLabelLength = 63

	// MaxNameLength is the longest encoded name allowed by RFC 1035 §3.1,
	// length bytes and the root terminator included.
	MaxNameLength = 255

	// MaxMessageSize is the receive buffer size. mDNS messages may exceed the
	// classic 512 byte limit (RFC 6762 §17) so the buffer is sized for a
	// jumbo Ethernet payload.
	MaxMessageSize = 9000

	// LocalDomain is the suffix every resolved name carries.
	LocalDomain = "local"

	// CompressionMask selects the two top bits of a length byte that mark a
	// compression pointer per RFC 1035 §4.1.4.
	CompressionMask = 0xC0
)

// RecordType is a DNS TYPE value per RFC 1035 §3.2.2.
type RecordType uint16

// Record types the resolver encodes or has to recognise while walking answers.
const (
	RecordTypeA    RecordType = 1
	RecordTypePTR  RecordType = 12
	RecordTypeTXT  RecordType = 16
	RecordTypeAAAA RecordType = 28
	RecordTypeSRV  RecordType = 33
	RecordTypeNSEC RecordType = 47
)

// String returns the mnemonic for known types and "TYPEn" otherwise
// (RFC 3597 §5 presentation).
func (r RecordType) String() string {
	switch r {
	case RecordTypeA:
		return "A"
	case RecordTypePTR:
		return "PTR"
	case RecordTypeTXT:
		return "TXT"
	case RecordTypeAAAA:
		return "AAAA"
	case RecordTypeSRV:
		return "SRV"
	case RecordTypeNSEC:
		return "NSEC"
	default:
		return "TYPE" + strconv.Itoa(int(r))
	}
}

// ClassIN is the Internet class per RFC 1035 §3.2.4.
const ClassIN uint16 = 1

// Header field offsets per RFC 1035 §4.1.1.
const (
	OffsetID      = 0
	OffsetFlags   = 2
	OffsetQDCount = 4
	OffsetANCount = 6
	OffsetNSCount = 8
	OffsetARCount = 10
)

// Fixed-size parts that follow a name on the wire.
const (
	// QuestionTrailerSize is QTYPE + QCLASS.
	QuestionTrailerSize = 4

	// RRFixedSize is TYPE + CLASS + TTL + RDLENGTH.
	RRFixedSize = 10

	// IPv4Len is the RDLENGTH of a well-formed A record.
	IPv4Len = 4
)
