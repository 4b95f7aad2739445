package extract

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hairdata/haira/internal/models"
)

// Raw source text stored with an evidence row is capped so a runaway
// page dump cannot bloat the table.
const maxEvidenceBytes = 2000

// NewEvidence builds an evidence row for one extracted field. The
// product id is filled in by the repository once the product row exists.
func NewEvidence(fieldName, sourceURL, locator, rawText string, method models.ExtractionMethod) models.Evidence {
	return models.Evidence{
		ID:              uuid.New(),
		FieldName:       fieldName,
		SourceURL:       sourceURL,
		EvidenceLocator: locator,
		RawSourceText:   TruncateBytes(rawText, maxEvidenceBytes),
		Method:          method,
		ExtractedAt:     time.Now().UTC(),
	}
}

// TruncateBytes cuts s to at most n bytes without splitting a rune.
func TruncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
