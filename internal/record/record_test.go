package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Record {
	return Record{
		Name:      "bench::load",
		Value:     10.5,
		Timestamp: 1700000000,
		Epoch:     2,
		KeyValues: []KeyValue{{Key: "os", Value: "linux"}, {Key: "type", Value: "bench"}},
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	r := sample()
	line := r.Encode()
	parsed, err := ParseLine(line)
	require.NoError(t, err)
	assert.True(t, Equal(r, parsed), "expected %+v == %+v", r, parsed)
}

func TestParseLineRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"name 1.0 2.0",                // too few tokens
		"name NaN 2.0 0",              // non-finite value
		"name 1.0 2.0 0 badmetadata",  // metadata missing '='
		"name notanumber 2.0 0 k=v",   // unparsable value
	}
	for _, c := range cases {
		_, err := ParseLine(c)
		assert.Error(t, err, "expected error for %q", c)
	}
}

func TestValidateInvariants(t *testing.T) {
	r := sample()
	assert.NoError(t, r.Validate())

	bad := r
	bad.Name = "has space"
	assert.Error(t, bad.Validate())

	bad = r
	bad.Timestamp = 0
	assert.Error(t, bad.Validate())

	bad = r
	bad.KeyValues = []KeyValue{{Key: "k", Value: "has space"}}
	assert.Error(t, bad.Validate())

	bad = r
	bad.KeyValues = []KeyValue{{Key: "dup", Value: "1"}, {Key: "dup", Value: "2"}}
	assert.Error(t, bad.Validate())
}

// TestConcatenationIsUnion is the merge-commutativity property from spec §8
// item 2: the byte-wise concatenation of two valid blobs parses to the
// union of their records.
func TestConcatenationIsUnion(t *testing.T) {
	a := []Record{sample(), {Name: "x", Value: 1, Timestamp: 1, Epoch: 0}}
	b := []Record{{Name: "y", Value: 2, Timestamp: 2, Epoch: 0}, sample()}

	var blobA, blobB strings.Builder
	require.NoError(t, WriteAll(&blobA, a))
	require.NoError(t, WriteAll(&blobB, b))

	concatenated := blobA.String() + blobB.String()
	parsed := ParseAll(strings.NewReader(concatenated), nil)

	expected := Union(a, b)
	assert.ElementsMatch(t, toKeys(expected), toKeys(parsed))
}

func toKeys(rs []Record) []string {
	keys := make([]string, len(rs))
	for i, r := range rs {
		keys[i] = sortKey(r)
	}
	return keys
}

func TestParseAllWarnsAndSkipsMalformedLines(t *testing.T) {
	input := "good 1.0 100 0 k=v\nbroken line missing tokens\ngood2 2.0 200 0\n"
	var warnings []string
	records := ParseAll(strings.NewReader(input), func(line string, err error) {
		warnings = append(warnings, line)
	})
	require.Len(t, records, 2)
	assert.Len(t, warnings, 1)
}

func TestVersionMarkerSkipped(t *testing.T) {
	records := ParseAll(strings.NewReader(VersionMarker+" good 1.0 100 0\n"), nil)
	require.Len(t, records, 1)
	assert.Equal(t, "good", records[0].Name)
}
