package pipeline

import (
	"fmt"

	"github.com/mvp-joe/docsift/internal/output"
)

// stemTable assigns output stems so that two sources never write to the
// same artifact. The first file in walk order owns the extension-less stem
// ("a.txt" and "a.pdf" → "a" and "a.pdf"). A stem is only granted when all
// three of its artifacts are unowned, so "x.pdf" and "x_annotated.md" cannot
// both write x_annotated.txt.
type stemTable struct {
	owners map[string]string
}

func newStemTable() *stemTable {
	return &stemTable{owners: map[string]string{}}
}

func (s *stemTable) claim(relPath string) string {
	candidates := []string{output.Stem(relPath), relPath}
	for _, stem := range candidates {
		if s.take(stem, relPath) {
			return stem
		}
	}
	for i := 2; ; i++ {
		if stem := fmt.Sprintf("%s~%d", relPath, i); s.take(stem, relPath) {
			return stem
		}
	}
}

// take reserves every artifact of stem for relPath if none is owned by
// another source.
func (s *stemTable) take(stem, relPath string) bool {
	artifacts := artifactNames(stem)
	for _, a := range artifacts {
		if owner, ok := s.owners[a]; ok && owner != relPath {
			return false
		}
	}
	for _, a := range artifacts {
		s.owners[a] = relPath
	}
	return true
}

func artifactNames(stem string) []string {
	return []string{
		stem + output.SuffixText,
		stem + output.SuffixJSON,
		stem + output.SuffixAnnotated,
	}
}
