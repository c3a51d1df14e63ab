package encoding

import (
	"bytes"
	"errors"
	"testing"
)

func TestLookupCharset(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  error
	}{
		{"", "utf-8", nil},
		{"UTF-8", "utf-8", nil},
		{"windows-1250", "windows-1250", nil},
		{"iso-8859-2", "iso-8859-2", nil},
		{"no-such-charset", "", ErrUnknownCharset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := LookupCharset(tt.name)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LookupCharset(%q) error: %v", tt.name, err)
			}
			if cs.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", cs.Name(), tt.wantName)
			}
		})
	}
}

func TestFixedString_UTF8(t *testing.T) {
	var cs Charset

	field, err := cs.EncodeFixedString("lava.png", 20)
	if err != nil {
		t.Fatalf("EncodeFixedString failed: %v", err)
	}
	if len(field) != 20 {
		t.Fatalf("field length = %d, want 20", len(field))
	}
	if !bytes.Equal(field[:8], []byte("lava.png")) || field[8] != 0 || field[19] != 0 {
		t.Errorf("unexpected field bytes %v", field)
	}

	got, err := cs.DecodeFixedString(field)
	if err != nil {
		t.Fatalf("DecodeFixedString failed: %v", err)
	}
	if got != "lava.png" {
		t.Errorf("decoded %q, want %q", got, "lava.png")
	}
}

func TestFixedString_Overflow(t *testing.T) {
	var cs Charset

	if _, err := cs.EncodeFixedString("0123456789012345678", 20); err != nil {
		t.Errorf("19-byte name should fit: %v", err)
	}
	if _, err := cs.EncodeFixedString("01234567890123456789", 20); !errors.Is(err, ErrFieldOverflow) {
		t.Errorf("20-byte name: expected ErrFieldOverflow, got %v", err)
	}
}

func TestFixedString_Unterminated(t *testing.T) {
	var cs Charset
	got, err := cs.DecodeFixedString([]byte("abcd"))
	if err != nil || got != "abcd" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestFixedString_Windows1250(t *testing.T) {
	cs, err := LookupCharset("windows-1250")
	if err != nil {
		t.Fatalf("LookupCharset failed: %v", err)
	}

	// "ł" is 0xB3 in windows-1250
	field, err := cs.EncodeFixedString("mało.png", 20)
	if err != nil {
		t.Fatalf("EncodeFixedString failed: %v", err)
	}
	if field[2] != 0xB3 {
		t.Errorf("expected 0xB3 at offset 2, got %#x", field[2])
	}
	if field[8] != 0 {
		t.Errorf("expected NUL after 8 encoded bytes, got %#x", field[8])
	}

	got, err := cs.DecodeFixedString(field)
	if err != nil {
		t.Fatalf("DecodeFixedString failed: %v", err)
	}
	if got != "mało.png" {
		t.Errorf("decoded %q, want %q", got, "mało.png")
	}
}

func TestTrimNull(t *testing.T) {
	if got := TrimNull([]byte{'a', 'b', 0, 'c'}); string(got) != "ab" {
		t.Errorf("TrimNull = %q", got)
	}
}
