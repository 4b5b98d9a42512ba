package httprange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingle(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
		want   Range
		err    error
	}{
		{name: "default when empty", header: "", size: 1000, want: Range{0, 999}},
		{name: "closed range", header: "bytes=0-99", size: 1000, want: Range{0, 99}},
		{name: "open ended", header: "bytes=500-", size: 1000, want: Range{500, 999}},
		{name: "suffix", header: "bytes=-100", size: 1000, want: Range{900, 999}},
		{name: "suffix larger than file", header: "bytes=-5000", size: 1000, want: Range{0, 999}},
		{name: "end clamped", header: "bytes=900-2000", size: 1000, want: Range{900, 999}},
		{name: "overlapping combined", header: "bytes=0-50,40-99", size: 1000, want: Range{0, 99}},
		{name: "adjacent combined", header: "bytes=0-49,50-99", size: 1000, want: Range{0, 99}},
		{name: "start past end", header: "bytes=1000-", size: 1000, err: ErrUnsatisfiable},
		{name: "disjoint ranges", header: "bytes=0-10,20-30", size: 1000, err: ErrMultiple},
		{name: "wrong unit", header: "items=0-10", size: 1000, err: ErrMalformed},
		{name: "garbage", header: "bytes=abc", size: 1000, err: ErrMalformed},
		{name: "inverted", header: "bytes=50-10", size: 1000, err: ErrMalformed},
		{name: "empty file", header: "bytes=0-", size: 0, err: ErrUnsatisfiable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSingle(tc.header, tc.size)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRangeHeaders(t *testing.T) {
	r := Range{Start: 0, End: 99}
	assert.Equal(t, int64(100), r.Length())
	assert.Equal(t, "bytes 0-99/1234", r.ContentRange(1234))
	assert.Equal(t, "bytes */1234", Unsatisfied(1234))
}
