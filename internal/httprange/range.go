// Package httprange parses and formats the byte range headers exchanged
// with resumable upload endpoints.
package httprange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Persisted is the server-side prefix reported in a `Range: bytes=0-n`
// response header.
type Persisted struct {
	// End is the inclusive offset of the last stored byte.
	End int64
}

// Next returns the first offset the server has not stored.
func (p Persisted) Next() int64 { return p.End + 1 }

// ParsePersisted reads a resumable upload Range response header. An empty
// header means no bytes are stored and yields offset 0 with ok=false.
func ParsePersisted(s string) (next int64, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	const b = "bytes="
	if !strings.HasPrefix(s, b) {
		return 0, false, fmt.Errorf("invalid range header %q", s)
	}
	spec := strings.TrimSpace(s[len(b):])
	if strings.Contains(spec, ",") {
		return 0, false, fmt.Errorf("invalid range header %q: multiple ranges", s)
	}
	i := strings.Index(spec, "-")
	if i < 0 {
		return 0, false, fmt.Errorf("invalid range header %q", s)
	}
	start, err := strconv.ParseInt(strings.TrimSpace(spec[:i]), 10, 64)
	if err != nil || start != 0 {
		return 0, false, fmt.Errorf("invalid range header %q: stored range must start at 0", s)
	}
	end, err := strconv.ParseInt(strings.TrimSpace(spec[i+1:]), 10, 64)
	if err != nil || end < start {
		return 0, false, fmt.Errorf("invalid range header %q", s)
	}
	return Persisted{End: end}.Next(), true, nil
}

// ContentRange describes the byte span carried by one request body.
type ContentRange struct {
	Start, End, Size int64
	// Empty marks a request without body bytes, written as `bytes */size`.
	Empty bool
}

// ForChunk builds the Content-Range for the half-open span [start,end) of a
// size byte upload.
func ForChunk(start, end, size int64) ContentRange {
	if end <= start {
		return ContentRange{Size: size, Empty: true}
	}
	return ContentRange{Start: start, End: end - 1, Size: size}
}

// Length returns the number of bytes the range covers.
func (cr ContentRange) Length() int64 {
	if cr.Empty {
		return 0
	}
	return cr.End - cr.Start + 1
}

// IsLastByte reports whether the range ends at the last byte of the upload.
func (cr ContentRange) IsLastByte() bool {
	if cr.Empty {
		return true
	}
	return cr.End+1 >= cr.Size
}

// String formats the header value.
func (cr ContentRange) String() string {
	if cr.Empty {
		return fmt.Sprintf("bytes */%d", cr.Size)
	}
	return fmt.Sprintf("bytes %d-%d/%d", cr.Start, cr.End, cr.Size)
}

// ParseContentRange parses either `bytes a-b/size` or `bytes */size`.
func ParseContentRange(s string) (*ContentRange, error) {
	const b = "bytes "
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, b) {
		return nil, errors.New("invalid unit of Content-Range header")
	}
	r := strings.Split(s[len(b):], "/")
	if len(r) != 2 {
		return nil, errors.New("invalid size of Content-Range header")
	}
	size, err := strconv.ParseInt(strings.TrimSpace(r[1]), 10, 64)
	if err != nil || size < 0 {
		return nil, errors.New("cannot parse size of Content-Range header")
	}
	if strings.TrimSpace(r[0]) == "*" {
		return &ContentRange{Size: size, Empty: true}, nil
	}
	r = strings.Split(r[0], "-")
	if len(r) != 2 {
		return nil, errors.New("cannot parse Content-Range header, expected format \"start-end\"")
	}
	start, err := strconv.ParseInt(strings.TrimSpace(r[0]), 10, 64)
	if err != nil {
		return nil, errors.New("cannot parse start of Content-Range header")
	}
	end, err := strconv.ParseInt(strings.TrimSpace(r[1]), 10, 64)
	if err != nil {
		return nil, errors.New("cannot parse end of Content-Range header")
	}
	if start > end || end >= size {
		return nil, errors.New("content-range header is out of bounds")
	}
	return &ContentRange{Start: start, End: end, Size: size}, nil
}
