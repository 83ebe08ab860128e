package ingestion

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/54b3r/sbke-go/internal/corpus"
	"github.com/54b3r/sbke-go/internal/insight"
	"github.com/54b3r/sbke-go/internal/rag"
)

const (
	// DefaultChunkWords is the number of words per section chunk.
	DefaultChunkWords = 800
	// DefaultChunkOverlap is the number of words shared by consecutive chunks.
	DefaultChunkOverlap = 150
	// minSectionChars is the shortest section text that is chunked.
	minSectionChars = 100
)

// chunkNamespace scopes the UUIDv5 chunk identifiers.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://sbke.dev/chunks"))

// ChunkPaper splits a paper into indexable chunks: one abstract chunk from
// the extracted metadata, then overlapping word windows over each remaining
// section longer than 100 characters. Every chunk carries the paper metadata
// and a chunk index that increases across the whole paper.
func ChunkPaper(text PaperText, meta *insight.PaperMetadata, size, overlap int) []rag.Chunk {
	if size <= 0 {
		size = DefaultChunkWords
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []rag.Chunk
	add := func(section, body string) {
		idx := len(chunks)
		chunks = append(chunks, rag.Chunk{
			ID:       chunkID(meta.PaperID, idx),
			Text:     body,
			Metadata: chunkMetadata(meta, section, idx),
		})
	}

	if abstract := strings.TrimSpace(meta.Abstract); abstract != "" {
		add(corpus.SectionAbstract, abstract)
	}
	for _, section := range chunkedSections {
		body := text.Sections[section]
		if len(body) <= minSectionChars {
			continue
		}
		for _, w := range splitWords(body, size, overlap) {
			add(section, w)
		}
	}
	return chunks
}

// splitWords returns windows of size words starting every size-overlap words.
func splitWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	step := size - overlap
	var out []string
	for i := 0; i < len(words); i += step {
		end := min(i+size, len(words))
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out
}

func chunkMetadata(meta *insight.PaperMetadata, section string, idx int) corpus.ChunkMetadata {
	return corpus.ChunkMetadata{
		PaperID:         meta.PaperID,
		Title:           meta.Title,
		Year:            meta.Year,
		Organisms:       meta.Organisms,
		Keywords:        meta.Keywords,
		Section:         section,
		SpaceConditions: meta.SpaceConditions,
		ExperimentType:  meta.ExperimentType,
		ChunkIndex:      idx,
	}
}

// chunkID returns a deterministic UUID for a paper chunk so re-ingesting a
// paper overwrites its points instead of duplicating them.
func chunkID(paperID string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s#%d", paperID, index))).String()
}
