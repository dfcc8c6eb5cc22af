// Package output writes the three artifacts produced for every extracted file.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/mvp-joe/docsift/internal/element"
	"github.com/mvp-joe/docsift/internal/fault"
)

// Artifact suffixes appended to a file's output stem.
const (
	SuffixText      = ".txt"
	SuffixJSON      = ".json"
	SuffixAnnotated = "_annotated.txt"
)

// Paths are the destinations of one file's artifacts.
type Paths struct {
	Text      string
	JSON      string
	Annotated string
}

// All returns the paths in write order.
func (p Paths) All() []string {
	return []string{p.Text, p.JSON, p.Annotated}
}

// Writer writes artifacts below an output root. Each artifact is written to
// a temp file in its destination directory and renamed into place, so an
// artifact is either the previous version or the complete new one.
type Writer struct {
	fs   afero.Fs
	root string
}

// NewWriter returns a writer rooted at root on fs.
func NewWriter(fs afero.Fs, root string) *Writer {
	return &Writer{fs: fs, root: root}
}

// Stem strips the extension from a path relative to the input root.
func Stem(relativePath string) string {
	return strings.TrimSuffix(relativePath, filepath.Ext(relativePath))
}

// Paths returns the artifact destinations for a source file.
func (w *Writer) Paths(relativePath string) Paths {
	return w.StemPaths(Stem(relativePath))
}

// StemPaths returns the artifact destinations for an explicit output stem.
func (w *Writer) StemPaths(stem string) Paths {
	base := filepath.Join(w.root, filepath.FromSlash(stem))
	return Paths{
		Text:      base + SuffixText,
		JSON:      base + SuffixJSON,
		Annotated: base + SuffixAnnotated,
	}
}

// Write renders elements for the source file at relativePath.
func (w *Writer) Write(relativePath string, elements []element.Element) error {
	return w.WriteStem(Stem(relativePath), elements)
}

// WriteStem renders elements under an explicit output stem. Artifacts are
// written text, JSON, annotated; if one fails the earlier ones stay in place
// and the returned error matches fault.ErrIO.
func (w *Writer) WriteStem(stem string, elements []element.Element) error {
	paths := w.StemPaths(stem)

	jsonData, err := RenderJSON(elements)
	if err != nil {
		return fmt.Errorf("render json for %s: %w", stem, err)
	}

	dir := filepath.Dir(paths.Text)
	if err := w.fs.MkdirAll(dir, 0755); err != nil {
		return fault.IO("mkdir", dir, err)
	}

	artifacts := []struct {
		path string
		data []byte
	}{
		{paths.Text, RenderText(elements)},
		{paths.JSON, jsonData},
		{paths.Annotated, RenderAnnotated(elements)},
	}
	for _, a := range artifacts {
		if err := w.writeAtomic(a.path, a.data); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)

	tmp, err := afero.TempFile(w.fs, dir, "."+base+".tmp-*")
	if err != nil {
		return fault.IO("create temp file for", path, err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		w.fs.Remove(tempPath)
		return fault.IO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		w.fs.Remove(tempPath)
		return fault.IO("close", path, err)
	}

	if err := w.fs.Rename(tempPath, path); err != nil {
		// Clean up temp file on error
		w.fs.Remove(tempPath)
		return fault.IO("rename", path, err)
	}
	return nil
}

// RenderText renders one element text per line.
func RenderText(elements []element.Element) []byte {
	var buf bytes.Buffer
	for _, e := range elements {
		buf.WriteString(e.Text)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// RenderJSON renders the ordered element array with two-space indentation
// and a trailing newline. No elements render as [].
func RenderJSON(elements []element.Element) ([]byte, error) {
	if elements == nil {
		elements = []element.Element{}
	}
	data, err := json.MarshalIndent(elements, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RenderAnnotated renders "[<kind>] <text>" per line.
func RenderAnnotated(elements []element.Element) []byte {
	var buf bytes.Buffer
	for _, e := range elements {
		buf.WriteString(e.Annotated())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
