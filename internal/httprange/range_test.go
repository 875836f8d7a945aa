package httprange

import (
	"testing"
)

func TestParsePersisted(t *testing.T) {
	var tests = []struct {
		s       string
		next    int64
		ok      bool
		wantErr bool
	}{
		{"", 0, false, false},
		{"   ", 0, false, false},
		{"bytes=0-0", 1, true, false},
		{"bytes=0-999999", 1000000, true, false},
		{" bytes=0-524287 ", 524288, true, false},
		{"bytes=1-5", 0, false, true},
		{"bytes=0-", 0, false, true},
		{"bytes=-5", 0, false, true},
		{"bytes=0-5,7-9", 0, false, true},
		{"items=0-5", 0, false, true},
		{"bytes=0-A", 0, false, true},
		{"bytes=5", 0, false, true},
	}

	for _, tt := range tests {
		next, ok, err := ParsePersisted(tt.s)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePersisted(%q) error = %v, wantErr %v", tt.s, err, tt.wantErr)
			continue
		}
		if next != tt.next || ok != tt.ok {
			t.Errorf("ParsePersisted(%q) = (%d, %v), want (%d, %v)", tt.s, next, ok, tt.next, tt.ok)
		}
	}
}

func TestForChunkFormatting(t *testing.T) {
	var tests = []struct {
		start, end, size int64
		want             string
		length           int64
		last             bool
	}{
		{0, 1000000, 3500000, "bytes 0-999999/3500000", 1000000, false},
		{3000000, 3500000, 3500000, "bytes 3000000-3499999/3500000", 500000, true},
		{0, 0, 0, "bytes */0", 0, true},
		{10, 10, 10, "bytes */10", 0, true},
	}

	for _, tt := range tests {
		cr := ForChunk(tt.start, tt.end, tt.size)
		if got := cr.String(); got != tt.want {
			t.Errorf("ForChunk(%d,%d,%d) = %q, want %q", tt.start, tt.end, tt.size, got, tt.want)
		}
		if cr.Length() != tt.length {
			t.Errorf("Length() = %d, want %d", cr.Length(), tt.length)
		}
		if cr.IsLastByte() != tt.last {
			t.Errorf("IsLastByte() = %v, want %v", cr.IsLastByte(), tt.last)
		}
	}
}

func TestParseContentRange(t *testing.T) {
	var tests = []struct {
		s       string
		want    *ContentRange
		wantErr bool
	}{
		{"", nil, false},
		{"bytes 0-99/100", &ContentRange{Start: 0, End: 99, Size: 100}, false},
		{"bytes */100", &ContentRange{Size: 100, Empty: true}, false},
		{"bytes 50-10/100", nil, true},
		{"bytes 0-100/100", nil, true},
		{"bytes 0-99", nil, true},
		{"items 0-99/100", nil, true},
		{"bytes a-b/100", nil, true},
		{"bytes 0-9/x", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseContentRange(tt.s)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseContentRange(%q) error = %v, wantErr %v", tt.s, err, tt.wantErr)
			continue
		}
		if tt.want == nil {
			if got != nil {
				t.Errorf("ParseContentRange(%q) = %+v, want nil", tt.s, got)
			}
			continue
		}
		if got == nil || *got != *tt.want {
			t.Errorf("ParseContentRange(%q) = %+v, want %+v", tt.s, got, tt.want)
		}
	}
}

func TestContentRangeRoundTrip(t *testing.T) {
	cr := ForChunk(2000000, 3000000, 3500000)
	parsed, err := ParseContentRange(cr.String())
	if err != nil {
		t.Fatalf("ParseContentRange: %v", err)
	}
	if *parsed != cr {
		t.Fatalf("round trip = %+v, want %+v", parsed, cr)
	}
}
