// Package classify maps files to the extraction capability that handles them.
//
// Classification is by extension only, case-insensitively, against a closed
// set of tags. A file with no extension, or one outside the set, is
// Unsupported: that is a skip, not an error.
package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/docsift/internal/fault"
)

// ForExtension returns the tag for ext, which may be given with or without
// its leading dot and in any case.
func ForExtension(ext string) Tag {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return Unsupported
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return extensions[ext]
}

// Classifier tags files, optionally restricted to a subset of tags.
type Classifier struct {
	only map[Tag]bool
}

// New returns a classifier. With no tags every supported format is
// accepted; otherwise files of any other format classify as Unsupported.
func New(only ...Tag) *Classifier {
	c := &Classifier{}
	if len(only) > 0 {
		c.only = make(map[Tag]bool, len(only))
		for _, t := range only {
			c.only[t] = true
		}
	}
	return c
}

// Classify returns the tag for the regular file at path. It fails with
// fault.ErrIO when the path cannot be stat'ed or is not a regular file.
func (c *Classifier) Classify(path string) (Tag, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Unsupported, fault.IO("stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return Unsupported, fault.IO("classify", path, fmt.Errorf("not a regular file (%s)", info.Mode().Type()))
	}
	return c.ClassifyName(path), nil
}

// ClassifyName tags a path by name alone, without touching the filesystem.
func (c *Classifier) ClassifyName(path string) Tag {
	tag := ForExtension(filepath.Ext(path))
	if tag == Unsupported {
		return Unsupported
	}
	if c.only != nil && !c.only[tag] {
		return Unsupported
	}
	return tag
}

// Restricted reports whether the classifier only accepts a subset of tags.
func (c *Classifier) Restricted() bool {
	return c.only != nil
}
