package rag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Bibliographic constants for the Truth Commission final report volumes.
// The vector store only carries title/source/page per fragment; the rest of
// the citation is shared by the whole corpus.
const (
	referenceYear      = "2022"
	referencePublisher = "Colombia. Comisión de la Verdad"
	referenceISBN      = "978-958-53874-3-0"

	untitledDocument = "Untitled document"

	// maxReferences caps the rendered Sources section.
	maxReferences = 8

	// minSourcesWithoutMarkers is how many entries the Sources section
	// covers when the answer carries no [n] markers at all.
	minSourcesWithoutMarkers = 3
)

// citationMarkerPattern matches bracketed-integer in-text citations like [2].
var citationMarkerPattern = regexp.MustCompile(`\[(\d+)\]`)

// sourcesHeadingPattern matches a model-written References/Sources heading
// line so the raw section can be stripped and replaced wholesale.
var sourcesHeadingPattern = regexp.MustCompile(`(?mi)^\s*(?:#+\s*)?\*{0,2}(?:references|sources|fuentes|referencias)\*{0,2}:?\s*$`)

// newReference builds a bibliographic reference from a document, falling
// back to the raw payload fields when flat metadata is incomplete.
func newReference(doc Document, number int) Reference {
	title := fieldOrFallback(doc, "title")
	if title == "" {
		title = untitledDocument
	}

	sourceID := fieldOrFallback(doc, "source_id")
	// Volume fragments sometimes carry the volume name only in the title.
	if !strings.HasPrefix(sourceID, "Tomo") && !strings.Contains(strings.ToLower(sourceID), "vol") {
		lowerTitle := strings.ToLower(title)
		if strings.Contains(lowerTitle, "tomo") || strings.Contains(lowerTitle, "vol") {
			sourceID = title
		}
	}

	return Reference{
		Number:    number,
		Title:     title,
		SourceID:  sourceID,
		Page:      fieldOrFallback(doc, "page"),
		Year:      referenceYear,
		Publisher: referencePublisher,
		ISBN:      referenceISBN,
		URL:       fieldOrFallback(doc, "link"),
	}
}

// fieldOrFallback reads a metadata field, consulting the retained raw
// payload when the flat metadata lacks it.
func fieldOrFallback(doc Document, field string) string {
	if value := metadataString(doc.Metadata[field]); value != "" {
		return value
	}
	return metadataString(doc.OriginalFields[field])
}

// ExtractReferences flattens all documents from all collected contexts in
// sub-question issuance order, deduplicates them by (title, page) with the
// first occurrence winning, and numbers them sequentially from 1 up to the
// hard cap.
func ExtractReferences(contexts []CollectedContext) []Reference {
	references := make([]Reference, 0, maxReferences)
	seen := make(map[string]bool)

	for _, collected := range contexts {
		for _, doc := range collected.Documents {
			candidate := newReference(doc, len(references)+1)

			key := candidate.Title + "\x00" + candidate.Page
			if seen[key] {
				continue
			}
			seen[key] = true

			references = append(references, candidate)
			if len(references) == maxReferences {
				return references
			}
		}
	}

	return references
}

// RenderSources reconciles the answer's in-text [n] markers against the
// available references and appends the generated Sources section. Any
// References/Sources section already present in the raw answer is stripped
// first. It returns the final answer and the references actually listed.
//
// The section covers 1..max(highest cited, 3 when nothing is cited),
// clamped to the number of available references: never fabricate beyond
// what was retrieved, never omit what was cited.
func RenderSources(answer string, references []Reference) (string, []Reference) {
	stripped := stripSourcesSection(answer)

	if len(references) == 0 {
		return stripped, nil
	}

	count := highestCitedMarker(stripped)
	if count == 0 {
		count = minSourcesWithoutMarkers
	}
	if count > len(references) {
		count = len(references)
	}

	listed := references[:count]

	var b strings.Builder
	b.WriteString(stripped)
	b.WriteString("\n\nSources:\n")
	for _, ref := range listed {
		b.WriteString(formatReference(ref))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n"), listed
}

// stripSourcesSection removes a model-written References/Sources heading
// and everything after it.
func stripSourcesSection(answer string) string {
	loc := sourcesHeadingPattern.FindStringIndex(answer)
	if loc == nil {
		return strings.TrimSpace(answer)
	}
	return strings.TrimSpace(answer[:loc[0]])
}

// highestCitedMarker returns the largest [n] marker in the answer, or 0
// when none are present.
func highestCitedMarker(answer string) int {
	highest := 0
	for _, match := range citationMarkerPattern.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest
}

// formatReference renders one Sources entry in the fixed template.
func formatReference(ref Reference) string {
	entry := fmt.Sprintf("%d. %s. (%s). %s. ISBN %s., Page %s.",
		ref.Number, ref.Title, ref.Year, ref.Publisher, ref.ISBN, ref.Page)
	if ref.URL != "" {
		entry += " " + ref.URL
	}
	return entry
}
