package output

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/docsift/internal/element"
	"github.com/mvp-joe/docsift/internal/fault"
)

// Test Plan for Writer:
// - destinations strip the source extension and mirror the input tree
// - the three artifacts have the documented byte layout
// - zero elements still produce all three artifacts
// - rewriting identical input yields identical bytes
// - a failure on the second artifact leaves the first and reports ErrIO
// - no temp files are left behind after success or failure

func sample() []element.Element {
	return []element.Element{
		element.New(element.KindTitle, "Hello"),
		element.New(element.KindNarrativeText, "World.").WithMeta(element.MetaPageNumber, 1),
	}
}

func readString(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestPaths(t *testing.T) {
	t.Parallel()

	w := NewWriter(afero.NewMemMapFs(), "/out")
	p := w.Paths("sub/dir/report.final.pdf")
	assert.Equal(t, filepath.Join("/out", "sub", "dir", "report.final.txt"), p.Text)
	assert.Equal(t, filepath.Join("/out", "sub", "dir", "report.final.json"), p.JSON)
	assert.Equal(t, filepath.Join("/out", "sub", "dir", "report.final_annotated.txt"), p.Annotated)

	assert.Equal(t, filepath.Join("/out", "a.pdf.txt"), w.StemPaths("a.pdf").Text)
	assert.Equal(t, "noext", Stem("noext"))
}

func TestWrite_Artifacts(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "/out")
	require.NoError(t, w.Write("docs/a.txt", sample()))

	p := w.Paths("docs/a.txt")
	assert.Equal(t, "Hello\nWorld.\n", readString(t, fs, p.Text))
	assert.Equal(t, "[Title] Hello\n[NarrativeText] World.\n", readString(t, fs, p.Annotated))

	raw := readString(t, fs, p.JSON)
	assert.JSONEq(t, `[
		{"kind": "Title", "text": "Hello", "metadata": {}},
		{"kind": "NarrativeText", "text": "World.", "metadata": {"page_number": 1}}
	]`, raw)
	assert.True(t, strings.HasSuffix(raw, "]\n"))
	assert.Contains(t, raw, "\n  {\n    \"kind\": \"Title\",\n    \"text\": \"Hello\",\n    \"metadata\": {}\n  }")
}

func TestWrite_NoElements(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "/out")
	require.NoError(t, w.Write("empty.txt", nil))

	p := w.Paths("empty.txt")
	assert.Equal(t, "", readString(t, fs, p.Text))
	assert.Equal(t, "[]\n", readString(t, fs, p.JSON))
	assert.Equal(t, "", readString(t, fs, p.Annotated))
}

func TestWrite_Idempotent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "/out")
	p := w.Paths("a.csv")

	require.NoError(t, w.Write("a.csv", sample()))
	first := readString(t, fs, p.JSON)
	require.NoError(t, w.Write("a.csv", sample()))
	assert.Equal(t, first, readString(t, fs, p.JSON))

	// Overwrite with different content replaces every artifact.
	require.NoError(t, w.Write("a.csv", sample()[:1]))
	assert.Equal(t, "Hello\n", readString(t, fs, p.Text))
	assertNoTempFiles(t, fs, "/out")
}

// failingFs fails every file creation whose name contains failOn.
type failingFs struct {
	afero.Fs
	failOn string
}

func (f failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if strings.Contains(filepath.Base(name), f.failOn) {
		return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("disk full")}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f failingFs) Create(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func TestWrite_SecondArtifactFails(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	w := NewWriter(failingFs{Fs: mem, failOn: ".json"}, "/out")

	err := w.Write("a.txt", sample())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrIO))
	assert.Equal(t, fault.CauseIO, fault.CauseOf(err))

	p := w.Paths("a.txt")
	assert.Equal(t, "Hello\nWorld.\n", readString(t, mem, p.Text))
	exists, _ := afero.Exists(mem, p.JSON)
	assert.False(t, exists)
	exists, _ = afero.Exists(mem, p.Annotated)
	assert.False(t, exists)
	assertNoTempFiles(t, mem, "/out")
}

func TestWrite_MkdirFails(t *testing.T) {
	t.Parallel()

	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := NewWriter(fs, "/out").Write("a/b.txt", sample())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrIO))
}

func TestWrite_OSFilesystem(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := NewWriter(afero.NewOsFs(), root)
	require.NoError(t, w.Write(filepath.Join("x", "y.md"), sample()))

	data, err := os.ReadFile(filepath.Join(root, "x", "y_annotated.txt"))
	require.NoError(t, err)
	assert.Equal(t, "[Title] Hello\n[NarrativeText] World.\n", string(data))
}

func assertNoTempFiles(t *testing.T, fs afero.Fs, root string) {
	t.Helper()
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		assert.NotContains(t, info.Name(), ".tmp-", "leftover temp file %s", path)
		return nil
	})
	require.NoError(t, err)
}
