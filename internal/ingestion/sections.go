package ingestion

import (
	"strings"

	"github.com/54b3r/sbke-go/internal/corpus"
)

// PaperText is the extracted text of one paper, split into the canonical
// sections.
type PaperText struct {
	// FullText is every page joined by newlines.
	FullText string
	// Sections maps a canonical section label to its text. Sections that were
	// never detected are absent.
	Sections map[string]string
}

// chunkedSections lists the sections split into word windows, in chunk
// order. The abstract is chunked separately from the extracted metadata.
var chunkedSections = []string{
	corpus.SectionIntroduction,
	corpus.SectionMethods,
	corpus.SectionResults,
	corpus.SectionDiscussion,
	corpus.SectionConclusion,
}

// DetectSections assigns each page to a section using heading keywords.
// A page switches the current section when it mentions a section keyword;
// pages without a keyword continue the current section. Pages before the
// first keyword belong to no section. The abstract is only entered once.
func DetectSections(pages []string) PaperText {
	pt := PaperText{
		FullText: strings.Join(pages, "\n"),
		Sections: make(map[string]string),
	}

	current := ""
	for _, page := range pages {
		if next := pageSection(strings.ToLower(page), pt.Sections[corpus.SectionAbstract] != ""); next != "" {
			current = next
		}
		if current == "" {
			continue
		}
		pt.Sections[current] += page + "\n"
	}
	return pt
}

// pageSection returns the section a page heading switches to, or "" when the
// page carries no keyword. Earlier keywords take precedence.
func pageSection(lower string, haveAbstract bool) string {
	switch {
	case strings.Contains(lower, "abstract") && !haveAbstract:
		return corpus.SectionAbstract
	case strings.Contains(lower, "introduction"):
		return corpus.SectionIntroduction
	case strings.Contains(lower, "method"), strings.Contains(lower, "material"):
		return corpus.SectionMethods
	case strings.Contains(lower, "result"):
		return corpus.SectionResults
	case strings.Contains(lower, "discussion"):
		return corpus.SectionDiscussion
	case strings.Contains(lower, "conclusion"):
		return corpus.SectionConclusion
	}
	return ""
}
