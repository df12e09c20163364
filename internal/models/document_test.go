// ABOUTME: Tests for Document validation and document types
// ABOUTME: Verifies required ingestion fields and known type detection
package models

import "testing"

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{
			name: "valid document",
			doc:  Document{ID: "doc1", Title: "Allergy List", Type: DocumentTypeMedicalRecord},
		},
		{
			name: "empty content is allowed",
			doc:  Document{ID: "empty", Title: "Blank", Type: DocumentTypeNote, Content: ""},
		},
		{
			name:    "missing id",
			doc:     Document{Title: "Labs", Type: DocumentTypeLabResult},
			wantErr: true,
		},
		{
			name:    "whitespace id",
			doc:     Document{ID: "  ", Title: "Labs", Type: DocumentTypeLabResult},
			wantErr: true,
		},
		{
			name:    "missing title",
			doc:     Document{ID: "doc2", Type: DocumentTypeLabResult},
			wantErr: true,
		},
		{
			name:    "missing type",
			doc:     Document{ID: "doc3", Title: "Labs"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDocumentType_IsKnown(t *testing.T) {
	for _, known := range KnownDocumentTypes {
		if !known.IsKnown() {
			t.Errorf("%q should be known", known)
		}
	}

	if DocumentType("sleep_diary").IsKnown() {
		t.Error("custom type should not be reported as known")
	}
	if DocumentType("").IsKnown() {
		t.Error("empty type should not be reported as known")
	}
}
