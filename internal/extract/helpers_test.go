package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/docsift/internal/element"
)

// kt is the kind and text of an element, the part most tests compare.
type kt struct {
	Kind element.Kind
	Text string
}

func summarize(els []element.Element) []kt {
	out := make([]kt, len(els))
	for i, e := range els {
		out[i] = kt{e.Kind, e.Text}
	}
	return out
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// writeZip builds a zip archive with members written in name order.
func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(members[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// testOptions are production defaults for tests that do not care.
func testOptions() Options {
	var o Options
	o.defaults()
	return o
}
