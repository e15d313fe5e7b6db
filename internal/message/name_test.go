package message

import (
	goerrors "errors"
	"strings"
	"testing"

	"github.com/xfalcon/localresolve/internal/errors"
)

// TestSkipName_RFC1035_Compression validates that SkipName steps over plain
// and compressed names per RFC 1035 §4.1.4 without following pointers.
func TestSkipName_RFC1035_Compression(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		offset  int
		wantOff int
		errMsg  string
	}{
		{
			name: "uncompressed name per RFC 1035 §4.1.4",
			data: []byte{
				0x04, 't', 'e', 's', 't',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
			offset:  0,
			wantOff: 12,
		},
		{
			name: "label followed by compression pointer",
			data: []byte{
				0x07, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
				0x04, 't', 'e', 's', 't',
				0xC0, 0x08,
			},
			offset:  15,
			wantOff: 22,
		},
		{
			name:    "bare pointer consumes exactly two bytes",
			data:    []byte{0xC0, 0x0C, 0x00, 0x01},
			offset:  0,
			wantOff: 2,
		},
		{
			name:    "pointer to self is skipped, not followed",
			data:    []byte{0xC0, 0x00},
			offset:  0,
			wantOff: 2,
		},
		{
			name:    "0xFF first byte is treated as pointer",
			data:    []byte{0xFF, 0xFF},
			offset:  0,
			wantOff: 2,
		},
		{
			name:    "root name",
			data:    []byte{0x00},
			offset:  0,
			wantOff: 1,
		},
		{
			name:   "reserved label type 0x40",
			data:   []byte{0x40, 0x00},
			offset: 0,
			errMsg: "reserved label type",
		},
		{
			name:   "reserved label type 0x80",
			data:   []byte{0x80, 0x00},
			offset: 0,
			errMsg: "reserved label type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SkipName(tt.data, tt.offset)

			if tt.errMsg != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got: %v", tt.errMsg, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantOff {
				t.Errorf("expected offset %d, got %d", tt.wantOff, got)
			}
		})
	}
}

// TestSkipName_TruncatedMessage validates that SkipName reports a
// WireFormatError instead of reading past the buffer.
func TestSkipName_TruncatedMessage(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		offset int
		errMsg string
	}{
		{
			name:   "truncated label",
			data:   []byte{0x05, 't', 'e'},
			offset: 0,
			errMsg: "truncated label",
		},
		{
			name:   "truncated compression pointer",
			data:   []byte{0xC0},
			offset: 0,
			errMsg: "truncated compression pointer",
		},
		{
			name:   "missing terminator",
			data:   []byte{0x04, 't', 'e', 's', 't'},
			offset: 0,
			errMsg: "name missing terminator",
		},
		{
			name:   "offset out of bounds",
			data:   []byte{0x04, 't', 'e', 's', 't', 0x00},
			offset: 100,
			errMsg: "offset out of bounds",
		},
		{
			name:   "negative offset",
			data:   []byte{0x00},
			offset: -1,
			errMsg: "offset out of bounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SkipName(tt.data, tt.offset)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}

			var wireErr *errors.WireFormatError
			if !goerrors.As(err, &wireErr) {
				t.Errorf("expected WireFormatError, got %T", err)
			}

			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got: %v", tt.errMsg, err)
			}
		})
	}
}

// TestEncodeName_RFC1035_BasicEncoding validates label encoding per RFC 1035 §3.1.
func TestEncodeName_RFC1035_BasicEncoding(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{
			name:  "simple name per RFC 1035 §3.1",
			input: "test.local",
			expected: []byte{
				0x04, 't', 'e', 's', 't',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
		},
		{
			name:     "root name",
			input:    "",
			expected: []byte{0x00},
		},
		{
			name:     "root name with dot",
			input:    ".",
			expected: []byte{0x00},
		},
		{
			name:  "name with trailing dot",
			input: "test.local.",
			expected: []byte{
				0x04, 't', 'e', 's', 't',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
		},
		{
			name:  "hyphen and underscore are kept",
			input: "my-box_1.local",
			expected: []byte{
				0x08, 'm', 'y', '-', 'b', 'o', 'x', '_', '1',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EncodeName(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if string(result) != string(tt.expected) {
				t.Errorf("EncodeName(%q) = % x, want % x", tt.input, result, tt.expected)
			}
		})
	}
}

// TestEncodeName_RFC1035_Validation validates that oversized or malformed
// names fail fast with a ValidationError instead of being truncated.
func TestEncodeName_RFC1035_Validation(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:   "empty label (consecutive dots)",
			input:  "test..local",
			errMsg: "empty label",
		},
		{
			name:   "leading dot",
			input:  ".test.local",
			errMsg: "empty label",
		},
		{
			name:   "label exceeds 63 bytes per RFC 1035 §3.1",
			input:  strings.Repeat("a", 64) + ".local",
			errMsg: "exceeds maximum length 63 bytes per RFC 1035 §3.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeName(tt.input)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}

			var valErr *errors.ValidationError
			if !goerrors.As(err, &valErr) {
				t.Errorf("expected ValidationError, got %T", err)
			}

			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got: %v", tt.errMsg, err)
			}
		})
	}
}

// TestEncodeName_MaxNameLength validates the 255-byte limit per RFC 1035 §3.1.
func TestEncodeName_MaxNameLength(t *testing.T) {
	// 4 labels of 63 bytes: 4*64 + 1 = 257 bytes encoded.
	labels := make([]string, 4)
	for i := range labels {
		labels[i] = strings.Repeat("a", 63)
	}

	_, err := EncodeName(strings.Join(labels, "."))
	if err == nil {
		t.Fatal("expected error for name exceeding 255 bytes per RFC 1035 §3.1, got nil")
	}

	if !strings.Contains(err.Error(), "exceeds maximum 255 bytes per RFC 1035 §3.1") {
		t.Errorf("expected error about 255 byte limit, got: %v", err)
	}
}

// TestEncodeName_BytesPassThrough checks that label bytes are copied as-is;
// only length limits are enforced.
func TestEncodeName_BytesPassThrough(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{
			name:  "space",
			input: "my printer.local",
			expected: []byte{
				0x0A, 'm', 'y', ' ', 'p', 'r', 'i', 'n', 't', 'e', 'r',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
		},
		{
			name:  "UTF-8 bytes",
			input: "café.local",
			expected: []byte{
				0x05, 'c', 'a', 'f', 0xC3, 0xA9,
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EncodeName(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if string(result) != string(tt.expected) {
				t.Errorf("EncodeName(%q) = % x, want % x", tt.input, result, tt.expected)
			}
		})
	}
}

func TestEncodeName_LabelExactly63(t *testing.T) {
	encoded, err := EncodeName(strings.Repeat("a", 63) + ".local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if encoded[0] != 63 {
		t.Errorf("first length byte = %d, want 63", encoded[0])
	}
}

// TestEncodeSkipName_Roundtrip validates that SkipName consumes exactly the
// bytes EncodeName produced.
func TestEncodeSkipName_Roundtrip(t *testing.T) {
	for _, name := range []string{"test.local", "printer.local", "my-device.local", "a.b.c.d.local"} {
		t.Run(name, func(t *testing.T) {
			encoded, err := EncodeName(name)
			if err != nil {
				t.Fatalf("EncodeName failed: %v", err)
			}

			off, err := SkipName(encoded, 0)
			if err != nil {
				t.Fatalf("SkipName failed: %v", err)
			}
			if off != len(encoded) {
				t.Errorf("SkipName offset = %d, want %d", off, len(encoded))
			}
		})
	}
}

func TestNormalizeHostname(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"zwift", "zwift.local"},
		{"zwift.local", "zwift.local"},
		{"zwift.local.", "zwift.local"},
		{"Zwift.LOCAL", "Zwift.LOCAL"},
		{"box.lan", "box.lan.local"},
		{"local", "local.local"},
		{"notlocal", "notlocal.local"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeHostname(tt.input); got != tt.want {
				t.Errorf("NormalizeHostname(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
