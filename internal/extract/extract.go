package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF = "application/pdf"

	// Extracted text shorter than this is treated as a probable scanned
	// image rather than clean content.
	minPlausibleChars = 50
)

// Extraction states recorded alongside the text.
const (
	StateExtracted     = "extracted"
	StateLowConfidence = "low_confidence"
	StateFailed        = "failed"
	StateEmpty         = "empty"
)

const (
	failureMarkerPrefix       = "[extraction failed: "
	lowConfidenceMarkerPrefix = "[low-confidence extraction; possible scanned image]"
)

// Result is the outcome of a text extraction attempt. Text is never nil-like:
// callers always receive a string, possibly empty or a bracketed marker.
type Result struct {
	Text  string
	State string
}

// Extract pulls plain text from an uploaded payload. It never returns an
// error: a PDF extraction failure becomes a marker string so the upload
// pipeline can always produce a document record.
func Extract(ctx context.Context, data []byte, declaredMIME string, fileName string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Text: FailureMarker(err), State: StateFailed}
	}

	if isPDF(declaredMIME, fileName) {
		return extractPDF(data)
	}
	return extractPlainText(data)
}

// FailureMarker renders an extraction error as a stored marker string.
// The underlying reason is embedded for operator diagnosis.
func FailureMarker(err error) string {
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	return fmt.Sprintf("%s%s]", failureMarkerPrefix, reason)
}

// IsMarkerOnly reports whether text consists solely of an extraction marker,
// with no usable content behind it.
func IsMarkerOnly(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, failureMarkerPrefix) && strings.HasSuffix(trimmed, "]") {
		return true
	}
	if strings.TrimSpace(strings.TrimPrefix(trimmed, lowConfidenceMarkerPrefix)) == "" {
		return true
	}
	return false
}

// UsableText strips any low-confidence marker prefix and returns the content
// suitable for prompt context. Marker-only text yields the empty string.
func UsableText(text string) string {
	if IsMarkerOnly(text) {
		return ""
	}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, lowConfidenceMarkerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(trimmed, lowConfidenceMarkerPrefix))
	}
	return trimmed
}

func extractPDF(data []byte) Result {
	text, err := pdfPlainText(data)
	if err != nil {
		return Result{Text: FailureMarker(err), State: StateFailed}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{
			Text:  lowConfidenceMarkerPrefix,
			State: StateLowConfidence,
		}
	}
	if utf8.RuneCountInString(text) < minPlausibleChars {
		return Result{
			Text:  lowConfidenceMarkerPrefix + " " + text,
			State: StateLowConfidence,
		}
	}
	return Result{Text: text, State: StateExtracted}
}

func pdfPlainText(data []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractPlainText(data []byte) Result {
	if len(data) == 0 {
		return Result{Text: "", State: StateEmpty}
	}
	if !utf8.Valid(data) {
		// A decode failure yields an empty-text result, not an error.
		return Result{Text: "", State: StateEmpty}
	}
	// Non-PDF bytes are taken verbatim; the scanned-image heuristic only
	// applies where an extractor sat between the bytes and the text.
	text := strings.TrimSpace(string(data))
	if text == "" {
		return Result{Text: "", State: StateEmpty}
	}
	return Result{Text: text, State: StateExtracted}
}

func isPDF(declaredMIME, fileName string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(declaredMIME, ";")[0]))
	if clean == mimePDF {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}
