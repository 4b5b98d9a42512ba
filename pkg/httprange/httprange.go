// Package httprange parses HTTP Range headers for single-range streaming.
package httprange

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultHeader is assumed when a request carries no Range header.
const DefaultHeader = "bytes=0-"

var (
	// ErrUnsatisfiable is returned when no requested range overlaps the resource.
	ErrUnsatisfiable = errors.New("range not satisfiable")
	// ErrMalformed is returned for headers that cannot be parsed.
	ErrMalformed = errors.New("malformed range header")
	// ErrMultiple is returned when the ranges cannot be combined into one.
	ErrMultiple = errors.New("multiple ranges not supported")
)

// Range is an inclusive byte interval.
type Range struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range value for a resource of size bytes.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// Unsatisfied renders the Content-Range value sent with a 416 response.
func Unsatisfied(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// ParseSingle parses header against a resource of size bytes. Overlapping or
// adjacent ranges are combined; the result must be exactly one range.
func ParseSingle(header string, size int64) (Range, error) {
	if strings.TrimSpace(header) == "" {
		header = DefaultHeader
	}
	ranges, err := Parse(header, size)
	if err != nil {
		return Range{}, err
	}
	ranges = Combine(ranges)
	if len(ranges) != 1 {
		return Range{}, ErrMultiple
	}
	return ranges[0], nil
}

// Parse returns every satisfiable range in header. Ends past the resource
// are clamped to size-1.
func Parse(header string, size int64) ([]Range, error) {
	unit, spec, ok := strings.Cut(header, "=")
	if !ok || strings.TrimSpace(unit) != "bytes" {
		return nil, ErrMalformed
	}

	var ranges []Range
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		startRaw, endRaw, ok := strings.Cut(part, "-")
		if !ok {
			return nil, ErrMalformed
		}
		startRaw, endRaw = strings.TrimSpace(startRaw), strings.TrimSpace(endRaw)

		var r Range
		switch {
		case startRaw == "":
			// suffix form: last n bytes
			n, err := strconv.ParseInt(endRaw, 10, 64)
			if err != nil || n < 0 {
				return nil, ErrMalformed
			}
			if n == 0 || size == 0 {
				continue
			}
			if n > size {
				n = size
			}
			r = Range{Start: size - n, End: size - 1}
		default:
			start, err := strconv.ParseInt(startRaw, 10, 64)
			if err != nil || start < 0 {
				return nil, ErrMalformed
			}
			end := size - 1
			if endRaw != "" {
				end, err = strconv.ParseInt(endRaw, 10, 64)
				if err != nil {
					return nil, ErrMalformed
				}
				if end < start {
					return nil, ErrMalformed
				}
				if end > size-1 {
					end = size - 1
				}
			}
			if start >= size {
				continue
			}
			r = Range{Start: start, End: end}
		}
		ranges = append(ranges, r)
	}

	if len(ranges) == 0 {
		return nil, ErrUnsatisfiable
	}
	return ranges, nil
}

// Combine merges overlapping and adjacent ranges, ordered by start.
func Combine(ranges []Range) []Range {
	if len(ranges) < 2 {
		return ranges
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
