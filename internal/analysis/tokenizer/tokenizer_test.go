package tokenizer

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, text string, mode Mode) []string {
	t.Helper()
	var out []string
	for word, err := range Scan(strings.NewReader(text), mode) {
		require.NoError(t, err)
		out = append(out, word)
	}
	return out
}

func TestScanRawKeepsFieldsVerbatim(t *testing.T) {
	text := "  Ekonomi büyüdü,\tfaiz   DÜŞTÜ.\n\nekonomi\r\n"
	assert.Equal(t,
		[]string{"Ekonomi", "büyüdü,", "faiz", "DÜŞTÜ.", "ekonomi"},
		collect(t, text, Raw))
}

func TestScanSplitsOnASCIISpaceOnly(t *testing.T) {
	text := "a\u00a0b\vc\fd e\u0085f"
	assert.Equal(t,
		[]string{"a\u00a0b", "c", "d", "e\u0085f"},
		collect(t, text, Raw))
}

func TestScanAcrossShortReads(t *testing.T) {
	var out []string
	for word, err := range Scan(iotest.OneByteReader(strings.NewReader("  ab \n\tcd  ef")), Raw) {
		require.NoError(t, err)
		out = append(out, word)
	}
	assert.Equal(t, []string{"ab", "cd", "ef"}, out)
}

func TestScanCutsOversizedFields(t *testing.T) {
	huge := strings.Repeat("x", 2*maxScanToken+17)
	words := collect(t, "alpha "+huge+" beta", Raw)
	require.Len(t, words, 3)
	assert.Equal(t, "alpha", words[0])
	assert.Equal(t, huge[:maxScanToken], words[1])
	assert.Equal(t, "beta", words[2])

	words = collect(t, "alpha "+huge, Raw)
	assert.Len(t, words, 2, "remainder at end of input is dropped")

	exact := strings.Repeat("y", maxScanToken)
	assert.Equal(t, []string{exact, "z"}, collect(t, exact+"\nz", Raw))
}

func TestScanNormalized(t *testing.T) {
	text := "The Runners were running, quickly! A cat-and-dog story"
	assert.Equal(t,
		[]string{"runner", "runn", "quick", "cat", "dog", "story"},
		collect(t, text, Normalized))
}

func TestScanEmpty(t *testing.T) {
	assert.Empty(t, collect(t, "", Raw))
	assert.Empty(t, collect(t, " \n\t ", Normalized))
}

func TestScanStopsEarly(t *testing.T) {
	n := 0
	for range Scan(strings.NewReader("a b c d"), Raw) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestScanSurfacesReadErrors(t *testing.T) {
	var errs []error
	for word, err := range Scan(failingReader{}, Raw) {
		assert.Empty(t, word)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "disk gone")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Raw, m)

	m, err = ParseMode("normalized")
	require.NoError(t, err)
	assert.Equal(t, Normalized, m)

	_, err = ParseMode("bpe")
	assert.Error(t, err)
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"relational": "relate",
		"happiness":  "happy",
		"cats":       "cat",
		"glass":      "glass",
		"go":         "go",
	}
	for in, want := range tests {
		assert.Equal(t, want, stem(in), in)
	}
}

func BenchmarkScanRaw(b *testing.B) {
	text := strings.Repeat("Information retrieval systems form the backbone of modern search infrastructure. ", 200)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		for range Scan(strings.NewReader(text), Raw) {
		}
	}
}
