package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// zipPart finds a member of an OOXML/ODF package by name.
func zipPart(r *zip.Reader, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// openPart opens the named member and returns an XML decoder over it.
func openPart(r *zip.Reader, name string) (*xml.Decoder, io.Closer, error) {
	f := zipPart(r, name)
	if f == nil {
		return nil, nil, fmt.Errorf("%s not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", name, err)
	}
	dec := xml.NewDecoder(rc)
	dec.Strict = false
	return dec, rc, nil
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// partRels returns the relationship targets of part, resolved to archive
// paths. A missing rels file yields an empty map.
func partRels(r *zip.Reader, part string) (map[string]string, error) {
	relsName := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	if zipPart(r, relsName) == nil {
		return map[string]string{}, nil
	}
	dec, closer, err := openPart(r, relsName)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var rels relationships
	if err := dec.Decode(&rels); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relsName, err)
	}
	out := make(map[string]string, len(rels.Items))
	for _, rel := range rels.Items {
		target := rel.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join(path.Dir(part), target)
		}
		out[rel.ID] = target
	}
	return out, nil
}

// numberedParts lists archive members named prefix<N>.xml sorted by N. It is
// the fallback ordering when a package has no usable relationship list.
func numberedParts(r *zip.Reader, prefix string) []string {
	type numbered struct {
		name string
		n    int
	}
	var parts []numbered
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, prefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, prefix), ".xml"))
		if err != nil {
			continue
		}
		parts = append(parts, numbered{f.Name, n})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.name
	}
	return out
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// table accumulates rows of cells while walking table markup.
type table struct {
	rows [][]string
	row  []string
	cell strings.Builder
}

func (t *table) endCell() {
	t.row = append(t.row, collapseSpace(t.cell.String()))
	t.cell.Reset()
}

func (t *table) endRow() {
	if len(t.row) > 0 {
		t.rows = append(t.rows, t.row)
	}
	t.row = nil
}

func (t *table) text() string {
	lines := make([]string, 0, len(t.rows))
	for _, r := range t.rows {
		lines = append(lines, strings.Join(r, "\t"))
	}
	return strings.Join(lines, "\n")
}
