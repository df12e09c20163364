// ABOUTME: Reads health record files from disk into plain text for ingestion
// ABOUTME: PDFs go through a text extractor, everything else is read as UTF-8 text
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/harper/health-copilot/internal/models"
	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a file yields no extractable text
var ErrNoText = errors.New("no text extracted")

// MaxFileSize caps how much of a file is read
const MaxFileSize = 10 << 20

// textExtensions are read verbatim
var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".json":     true,
	".xml":      true,
	".hl7":      true,
	"":          true,
}

// IsSupported reports whether path has an extension ReadDocumentFile handles
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || textExtensions[ext]
}

// ReadDocumentFile returns the text content of path
func ReadDocumentFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%s is too large (%d bytes, max %d)", path, info.Size(), MaxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var text string
	switch {
	case ext == ".pdf":
		text, err = readPDF(path)
	case textExtensions[ext]:
		text, err = readText(path)
	default:
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return text, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text", path)
	}
	return string(data), nil
}

func readPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return buf.String(), nil
}

// TitleFromPath derives a display title from a file name
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return base
	}
	return name
}

// typeHints maps file name fragments to document types, checked in order
var typeHints = []struct {
	fragments []string
	docType   models.DocumentType
}{
	{[]string{"lab", "blood", "panel", "cbc", "lipid"}, models.DocumentTypeLabResult},
	{[]string{"rx", "prescription", "medication", "pharmacy"}, models.DocumentTypePrescription},
	{[]string{"mri", "xray", "x-ray", "ct", "ultrasound", "imaging", "radiology"}, models.DocumentTypeImagingReport},
	{[]string{"fitbit", "garmin", "oura", "watch", "wearable", "steps", "sleep"}, models.DocumentTypeWearableSummary},
	{[]string{"note", "journal"}, models.DocumentTypeNote},
}

// GuessDocumentType infers a document type from the file name, defaulting to medical_record
func GuessDocumentType(path string) models.DocumentType {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})

	for _, hint := range typeHints {
		for _, frag := range hint.fragments {
			for _, tok := range tokens {
				if tok == frag || (len(frag) > 3 && strings.Contains(tok, frag)) {
					return hint.docType
				}
			}
		}
	}
	return models.DocumentTypeMedicalRecord
}
