package locate

import "github.com/reviewkit/textanchor/pkg/models"

// Translate maps a chunk-local location to absolute document offsets. Chunk
// ranges never overlap, so translation is a pure shift. It fails when the
// chunk's document position is unknown; an unplaceable chunk means a dropped
// finding, never an estimated one.
func Translate(chunk *models.ChunkRef, loc models.TextLocation) (models.TextLocation, bool) {
	if chunk == nil || chunk.DocumentStartOffset < 0 {
		return models.TextLocation{}, false
	}
	loc.StartOffset += chunk.DocumentStartOffset
	loc.EndOffset += chunk.DocumentStartOffset
	return loc, true
}
