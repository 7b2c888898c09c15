package ingestion_engine

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/Fixpress/internal/models"
)

// SplitText cuts text into fixed-size windows that overlap by overlap runes.
//
// The cursor starts at 0 and advances by chunkSize-overlap. Each window spans
// [cursor, min(cursor+chunkSize, len)) and stops once a window reaches the end
// of the text. A plain "while cursor < len" loop would keep emitting tail
// windows that sit entirely inside the previous chunk (1700 runes at 1000/200
// gives three chunks that way, two here); those are never produced.
// Offsets index the source text; only the chunk text is trimmed.
func SplitText(text string, chunkSize, overlap int) ([]models.TextChunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be > 0, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be >= 0 and < chunk size %d, got %d", chunkSize, overlap)
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return []models.TextChunk{}, nil
	}

	step := chunkSize - overlap
	chunks := make([]models.TextChunk, 0, n/step+1)

	for start, pos := 0, 0; start < n; start, pos = start+step, pos+1 {
		end := min(start+chunkSize, n)
		chunks = append(chunks, models.TextChunk{
			ID:       fmt.Sprintf("chunk_%d", pos),
			Position: pos,
			Text:     strings.TrimSpace(string(runes[start:end])),
			Start:    start,
			End:      end,
		})
		if end == n {
			break
		}
	}

	return chunks, nil
}
