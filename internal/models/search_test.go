// ABOUTME: Tests for citation formatting and result conversion
// ABOUTME: Verifies the human-readable provenance string for chunks
package models

import "testing"

func TestFormatCitation(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		sourceFile string
		docType    DocumentType
		index      int
		want       string
	}{
		{
			name:    "falls back to document type",
			title:   "Labs",
			docType: DocumentTypeLabResult,
			index:   2,
			want:    "Labs (lab_result, section 3)",
		},
		{
			name:       "prefers source file",
			title:      "Discharge Summary",
			sourceFile: "discharge.pdf",
			docType:    DocumentTypeMedicalRecord,
			index:      0,
			want:       "Discharge Summary (discharge.pdf, section 1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCitation(tt.title, tt.sourceFile, tt.docType, tt.index)
			if got != tt.want {
				t.Errorf("FormatCitation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCitationFor(t *testing.T) {
	r := SearchResult{
		ChunkID:        "labs_chunk_2",
		DocumentID:     "labs",
		DocumentTitle:  "Labs",
		ChunkIndex:     2,
		DocumentType:   DocumentTypeLabResult,
		RelevanceScore: 0.82,
		Citation:       "Labs (lab_result, section 3)",
	}

	c := CitationFor(r)
	if c.Label != r.Citation {
		t.Errorf("Label = %q, want %q", c.Label, r.Citation)
	}
	if c.ChunkID != r.ChunkID || c.DocumentID != r.DocumentID {
		t.Errorf("ids not copied: %+v", c)
	}
	if c.RelevanceScore != r.RelevanceScore {
		t.Errorf("RelevanceScore = %v, want %v", c.RelevanceScore, r.RelevanceScore)
	}
}
