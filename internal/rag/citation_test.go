package rag

import (
	"fmt"
	"strings"
	"testing"
)

func docWith(title, page string) Document {
	return Document{
		Content:  "fragment",
		Metadata: map[string]any{"title": title, "page": page},
	}
}

func TestExtractReferencesDeduplicatesByTitleAndPage(t *testing.T) {
	contexts := []CollectedContext{
		{Documents: []Document{docWith("Tomo I", "10"), docWith("Tomo I", "10"), docWith("Tomo I", "11")}},
		{Documents: []Document{docWith("Tomo I", "10"), docWith("Tomo II", "10")}},
	}

	references := ExtractReferences(contexts)
	if len(references) != 3 {
		t.Fatalf("ExtractReferences() = %d references, want 3", len(references))
	}

	wantTitles := []string{"Tomo I", "Tomo I", "Tomo II"}
	wantPages := []string{"10", "11", "10"}
	for i, ref := range references {
		if ref.Number != i+1 {
			t.Errorf("References[%d].Number = %d, want %d", i, ref.Number, i+1)
		}
		if ref.Title != wantTitles[i] || ref.Page != wantPages[i] {
			t.Errorf("References[%d] = (%q, %q), want (%q, %q)", i, ref.Title, ref.Page, wantTitles[i], wantPages[i])
		}
	}
}

func TestExtractReferencesCapsAtMaximum(t *testing.T) {
	var documents []Document
	for i := 0; i < maxReferences+5; i++ {
		documents = append(documents, docWith(fmt.Sprintf("Tomo %d", i), "1"))
	}

	references := ExtractReferences([]CollectedContext{{Documents: documents}})
	if len(references) != maxReferences {
		t.Errorf("ExtractReferences() = %d references, want %d", len(references), maxReferences)
	}
}

func TestExtractReferencesPreservesIssuanceOrder(t *testing.T) {
	contexts := []CollectedContext{
		{Documents: []Document{docWith("B", "1")}},
		{Documents: []Document{docWith("A", "1")}},
	}
	references := ExtractReferences(contexts)
	if references[0].Title != "B" || references[1].Title != "A" {
		t.Errorf("ExtractReferences() order = [%s, %s], want [B, A]", references[0].Title, references[1].Title)
	}
}

func TestNewReferenceFallsBackToRawFields(t *testing.T) {
	doc := Document{
		Content:        "fragment",
		Metadata:       map[string]any{},
		OriginalFields: map[string]any{"title": "Informe Final", "page": float64(33), "link": "https://example.org"},
	}

	ref := newReference(doc, 1)
	if ref.Title != "Informe Final" {
		t.Errorf("Title = %q, want Informe Final", ref.Title)
	}
	if ref.Page != "33" {
		t.Errorf("Page = %q, want 33", ref.Page)
	}
	if ref.URL != "https://example.org" {
		t.Errorf("URL = %q", ref.URL)
	}
}

func TestNewReferenceUntitledFallback(t *testing.T) {
	ref := newReference(Document{Content: "x"}, 2)
	if ref.Title != untitledDocument {
		t.Errorf("Title = %q, want %q", ref.Title, untitledDocument)
	}
	if ref.Year != referenceYear || ref.Publisher != referencePublisher || ref.ISBN != referenceISBN {
		t.Errorf("bibliographic constants not applied: %+v", ref)
	}
}

func TestNewReferenceVolumeNormalization(t *testing.T) {
	doc := Document{
		Metadata: map[string]any{"title": "Tomo de Hallazgos y recomendaciones"},
	}
	ref := newReference(doc, 1)
	if ref.SourceID != "Tomo de Hallazgos y recomendaciones" {
		t.Errorf("SourceID = %q, want the volume title", ref.SourceID)
	}
}

func TestRenderSourcesCoversHighestCitedMarker(t *testing.T) {
	references := []Reference{
		{Number: 1, Title: "Tomo I", Year: referenceYear, Publisher: referencePublisher, ISBN: referenceISBN, Page: "10"},
		{Number: 2, Title: "Tomo II", Year: referenceYear, Publisher: referencePublisher, ISBN: referenceISBN, Page: "20"},
		{Number: 3, Title: "Tomo III", Year: referenceYear, Publisher: referencePublisher, ISBN: referenceISBN, Page: "30"},
		{Number: 4, Title: "Tomo IV", Year: referenceYear, Publisher: referencePublisher, ISBN: referenceISBN, Page: "40"},
	}

	answer := "The report documents this [1] and that [2]."
	rendered, listed := RenderSources(answer, references)

	if len(listed) != 2 {
		t.Fatalf("listed = %d references, want 2", len(listed))
	}
	if !strings.Contains(rendered, "\n\nSources:\n") {
		t.Error("rendered answer missing Sources section")
	}
	if strings.Contains(rendered, "Tomo III") {
		t.Error("uncited references beyond the highest marker were listed")
	}
}

func TestRenderSourcesClampsToAvailableReferences(t *testing.T) {
	references := []Reference{
		{Number: 1, Title: "Tomo I", Year: referenceYear, Publisher: referencePublisher, ISBN: referenceISBN, Page: "10"},
		{Number: 2, Title: "Tomo II", Year: referenceYear, Publisher: referencePublisher, ISBN: referenceISBN, Page: "20"},
	}

	// The model cited [5] but only two documents were retrieved.
	_, listed := RenderSources("As noted [5].", references)
	if len(listed) != 2 {
		t.Errorf("listed = %d references, want 2", len(listed))
	}
}

func TestRenderSourcesWithoutMarkersListsThree(t *testing.T) {
	var references []Reference
	for i := 1; i <= 5; i++ {
		references = append(references, Reference{
			Number: i, Title: fmt.Sprintf("Tomo %d", i),
			Year: referenceYear, Publisher: referencePublisher, ISBN: referenceISBN, Page: "1",
		})
	}

	_, listed := RenderSources("An answer with no citations.", references)
	if len(listed) != minSourcesWithoutMarkers {
		t.Errorf("listed = %d references, want %d", len(listed), minSourcesWithoutMarkers)
	}
}

func TestRenderSourcesNoReferences(t *testing.T) {
	rendered, listed := RenderSources("An answer [1].", nil)
	if listed != nil {
		t.Errorf("listed = %v, want nil", listed)
	}
	if strings.Contains(rendered, "Sources:") {
		t.Error("Sources section rendered without references")
	}
}

func TestRenderSourcesStripsModelWrittenSection(t *testing.T) {
	references := []Reference{
		{Number: 1, Title: "Tomo I", Year: referenceYear, Publisher: referencePublisher, ISBN: referenceISBN, Page: "10"},
	}

	tests := []string{
		"The answer [1].\n\nReferences:\n[1] Some made-up citation, page 3.",
		"The answer [1].\n\n**Referencias**\n[1] Cita inventada.",
		"The answer [1].\n\n## Sources\n[1] something",
	}

	for _, answer := range tests {
		rendered, _ := RenderSources(answer, references)
		if strings.Contains(rendered, "made-up") || strings.Contains(rendered, "inventada") || strings.Contains(rendered, "something") {
			t.Errorf("model-written section not stripped:\n%s", rendered)
		}
		if strings.Count(rendered, "Sources:") != 1 {
			t.Errorf("rendered answer must contain exactly one Sources section:\n%s", rendered)
		}
	}
}

func TestFormatReference(t *testing.T) {
	ref := Reference{
		Number: 2, Title: "Tomo I", Year: "2022",
		Publisher: "Colombia. Comisión de la Verdad",
		ISBN:      "978-958-53874-3-0", Page: "15",
		URL: "https://example.org/tomo1",
	}

	want := "2. Tomo I. (2022). Colombia. Comisión de la Verdad. ISBN 978-958-53874-3-0., Page 15. https://example.org/tomo1"
	if got := formatReference(ref); got != want {
		t.Errorf("formatReference() = %q, want %q", got, want)
	}

	ref.URL = ""
	want = "2. Tomo I. (2022). Colombia. Comisión de la Verdad. ISBN 978-958-53874-3-0., Page 15."
	if got := formatReference(ref); got != want {
		t.Errorf("formatReference() without URL = %q, want %q", got, want)
	}
}

func TestHighestCitedMarker(t *testing.T) {
	tests := []struct {
		answer string
		want   int
	}{
		{answer: "no markers", want: 0},
		{answer: "one [1]", want: 1},
		{answer: "scattered [3] and [1] and [7]", want: 7},
		{answer: "not markers [a] [12x]", want: 0},
	}
	for _, tt := range tests {
		if got := highestCitedMarker(tt.answer); got != tt.want {
			t.Errorf("highestCitedMarker(%q) = %d, want %d", tt.answer, got, tt.want)
		}
	}
}
