package ingestion

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/54b3r/sbke-go/internal/insight"
)

func words(n int, prefix string) string {
	w := make([]string, n)
	for i := range w {
		w[i] = prefix
	}
	return strings.Join(w, " ")
}

func testMeta() *insight.PaperMetadata {
	return &insight.PaperMetadata{
		PaperID:         "PMC42",
		Title:           "Mice in orbit",
		Year:            2022,
		Abstract:        "We flew mice.",
		Organisms:       []string{"mouse"},
		Keywords:        []string{"bone"},
		SpaceConditions: []string{"microgravity"},
		ExperimentType:  "spaceflight",
	}
}

func TestSplitWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		words int
		want  []int
	}{
		{"short", 10, []int{10}},
		{"exact window", 800, []int{800, 150}},
		{"two windows", 900, []int{800, 250}},
		{"empty", 0, nil},
	}
	for _, tc := range tests {
		got := splitWords(words(tc.words, "w"), 800, 150)
		if len(got) != len(tc.want) {
			t.Errorf("%s: got %d windows, want %d", tc.name, len(got), len(tc.want))
			continue
		}
		for i, n := range tc.want {
			if c := len(strings.Fields(got[i])); c != n {
				t.Errorf("%s: window %d has %d words, want %d", tc.name, i, c, n)
			}
		}
	}
}

func TestChunkPaper(t *testing.T) {
	t.Parallel()

	text := PaperText{Sections: map[string]string{
		"abstract":     "ignored: the abstract comes from metadata",
		"introduction": words(900, "intro"),
		"methods":      "too short",
		"results":      words(50, "result"),
	}}
	chunks := ChunkPaper(text, testMeta(), 800, 150)

	// abstract + 2 intro windows + 1 results window; methods ≤ 100 chars.
	if len(chunks) != 4 {
		t.Fatalf("want 4 chunks, got %d", len(chunks))
	}
	wantSections := []string{"abstract", "introduction", "introduction", "results"}
	for i, c := range chunks {
		if c.Metadata.Section != wantSections[i] {
			t.Errorf("chunk %d section = %q, want %q", i, c.Metadata.Section, wantSections[i])
		}
		if c.Metadata.ChunkIndex != i {
			t.Errorf("chunk %d index = %d", i, c.Metadata.ChunkIndex)
		}
		if c.Metadata.PaperID != "PMC42" || c.Metadata.Year != 2022 {
			t.Errorf("chunk %d metadata = %+v", i, c.Metadata)
		}
		if _, err := uuid.Parse(c.ID); err != nil {
			t.Errorf("chunk %d ID %q is not a UUID: %v", i, c.ID, err)
		}
	}
	if chunks[0].Text != "We flew mice." {
		t.Errorf("abstract chunk text = %q", chunks[0].Text)
	}
}

func TestChunkPaper_NoAbstract(t *testing.T) {
	t.Parallel()

	meta := testMeta()
	meta.Abstract = "  "
	chunks := ChunkPaper(PaperText{Sections: map[string]string{"results": words(120, "r")}}, meta, 0, 0)

	if len(chunks) != 1 || chunks[0].Metadata.Section != "results" {
		t.Fatalf("want one results chunk, got %+v", chunks)
	}
	if chunks[0].Metadata.ChunkIndex != 0 {
		t.Errorf("chunk index = %d, want 0", chunks[0].Metadata.ChunkIndex)
	}
}

func TestChunkPaper_SectionLengthBoundary(t *testing.T) {
	t.Parallel()

	meta := testMeta()
	meta.Abstract = ""

	tests := []struct {
		name string
		body string
		want int
	}{
		{"100 chars skipped", strings.Repeat("x", 100), 0},
		{"101 chars kept", strings.Repeat("x", 101), 1},
		{"30 words skipped", words(30, "r"), 0},
	}
	for _, tc := range tests {
		chunks := ChunkPaper(PaperText{Sections: map[string]string{"discussion": tc.body}}, meta, 0, 0)
		if len(chunks) != tc.want {
			t.Errorf("%s: got %d chunks, want %d", tc.name, len(chunks), tc.want)
		}
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	t.Parallel()

	if chunkID("p", 1) != chunkID("p", 1) {
		t.Error("chunkID must be deterministic")
	}
	if chunkID("p", 1) == chunkID("p", 2) {
		t.Error("chunkID must differ per index")
	}
	if chunkID("p1", 0) == chunkID("p2", 0) {
		t.Error("chunkID must differ per paper")
	}
}
