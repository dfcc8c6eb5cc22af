package extract

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/docsift/internal/classify"
	"github.com/mvp-joe/docsift/internal/element"
	"github.com/mvp-joe/docsift/internal/fault"
)

// Test Plan for text and delimited capabilities:
// - paragraphs, titles and bullet blocks come out in order
// - legacy single-byte text is detected and decoded
// - an unknown encoding override is an extraction failure
// - oversize files fail with ErrExtraction, missing files with ErrIO
// - CSV/TSV produce one Table element, header row optional
// - paragraph heuristics classify titles, narrative and uncategorized text

func TestTextExtractor_Paragraphs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.txt")
	writeFile(t, path, "Quarterly Report\n\nRevenue grew by ten percent\nthis quarter.\n\n- first item\n- second item\n")

	els, err := (&TextExtractor{opts: testOptions()}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []kt{
		{element.KindTitle, "Quarterly Report"},
		{element.KindNarrativeText, "Revenue grew by ten percent this quarter."},
		{element.KindListItem, "first item"},
		{element.KindListItem, "second item"},
	}, summarize(els))
}

func TestTextExtractor_DetectsLegacyEncoding(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "latin.txt")
	writeFile(t, path, "Le caf\xe9 est chaud.")

	els, err := (&TextExtractor{opts: testOptions()}).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "Le café est chaud.", els[0].Text)
}

func TestTextExtractor_EncodingOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, "hello.")

	opts := testOptions()
	opts.Encoding = "klingon-8"
	_, err := (&TextExtractor{opts: opts}).Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.Equal(t, "unknown encoding", Reason(err))
}

func TestTextExtractor_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.txt")
	writeFile(t, path, "")

	els, err := (&TextExtractor{opts: testOptions()}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, els)
}

func TestReadFile_Limits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	writeFile(t, path, "0123456789")

	_, err := (&TextExtractor{opts: Options{MaxFileSize: 4}}).Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.Equal(t, fault.CauseExtraction, fault.CauseOf(err))

	_, err = (&TextExtractor{opts: testOptions()}).Extract(context.Background(), filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrIO))
	assert.False(t, errors.Is(err, ErrExtraction))
}

func TestDelimitedExtractor_CSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "people.csv")
	writeFile(t, path, "name,age\nAnn,42\n\"Smith, Bob\",7\n")

	opts := testOptions()
	els, err := NewDelimitedExtractor(classify.TagCSV, ',', opts).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, element.KindTable, els[0].Kind)
	assert.Equal(t, "Ann\t42\nSmith, Bob\t7", els[0].Text)
	assert.Equal(t, 2, els[0].Metadata["rows"])
	assert.Equal(t, 2, els[0].Metadata["columns"])
	assert.Equal(t, []string{"name", "age"}, els[0].Metadata["header"])

	opts.IncludeTableHeader = true
	els, err = NewDelimitedExtractor(classify.TagCSV, ',', opts).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "name\tage\nAnn\t42\nSmith, Bob\t7", els[0].Text)
	assert.Equal(t, 3, els[0].Metadata["rows"])
}

func TestDelimitedExtractor_TSVRaggedRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.tsv")
	writeFile(t, path, "a\tb\tc\n1\t2\n3\t4\t5\t6\n")

	opts := testOptions()
	opts.IncludeTableHeader = true
	els, err := NewDelimitedExtractor(classify.TagTSV, '\t', opts).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "a\tb\tc\n1\t2\n3\t4\t5\t6", els[0].Text)
	assert.Equal(t, 4, els[0].Metadata["columns"])
}

func TestDelimitedExtractor_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	writeFile(t, path, "")

	els, err := NewDelimitedExtractor(classify.TagCSV, ',', testOptions()).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, els)
}

func TestKindOfParagraph(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want element.Kind
	}{
		{"Introduction", element.KindTitle},
		{"2. Results", element.KindTitle},
		{"The results are in.", element.KindNarrativeText},
		{"lowercase start without punctuation", element.KindNarrativeText},
		{"Contents:", element.KindNarrativeText},
		{"12 345 678", element.KindUncategorizedText},
		{"A very long line that keeps going well past the number of words a heading would have", element.KindNarrativeText},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kindOfParagraph(tt.text), tt.text)
	}
}

func TestTrimBullet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"- item", "item", true},
		{"* item", "item", true},
		{"• item", "item", true},
		{"1. item", "item", true},
		{"12) item", "item", true},
		{"a) item", "item", true},
		{"plain text", "plain text", false},
		{"1.5 million", "1.5 million", false},
	}
	for _, tt := range tests {
		got, ok := trimBullet(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}
