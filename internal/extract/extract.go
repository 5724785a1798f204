// Package extract finds candidate project addresses in an uploaded document
// using a Gemini model.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"google.golang.org/genai"

	"proposal-generator/internal/address"
)

const prompt = "From this document, extract the address that is most likely the address of the main project, " +
	"not one of the contractors, architects etc. If you are not confident, list out the most likely addresses, " +
	"but if you are confident give the project address only."

var (
	ErrUnsupportedType = errors.New("Only PDF or DOCX files are allowed.")
	ErrEmptyDocument   = errors.New("No file uploaded")
	// ErrUnusableResponse is returned when the model answers with nothing or
	// with something other than a JSON array of strings.
	ErrUnusableResponse = errors.New("Empty response from Gemini")
	// ErrUpstream wraps transport and API failures of the Gemini service.
	ErrUpstream = errors.New("Address extraction service failed")
	// ErrDocumentTooLarge is returned for a PDF over the inline limit when no
	// file store is configured.
	ErrDocumentTooLarge = errors.New("File too large")
)

// InlineLimit is the largest PDF sent inline with the prompt. Gemini caps
// inline requests at 20 MB after base64 encoding; larger PDFs are uploaded
// through the Files API instead.
const InlineLimit = 14 << 20

// ContentGenerator is the subset of genai.Models used for extraction.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// FileStore is the subset of genai.Files used for documents too large to
// send inline.
type FileStore interface {
	Upload(ctx context.Context, r io.Reader, config *genai.UploadFileConfig) (*genai.File, error)
	Delete(ctx context.Context, name string, config *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error)
}

type GeminiExtractor struct {
	models      ContentGenerator
	files       FileStore
	model       string
	inlineLimit int
	logger      *slog.Logger
}

var _ address.Extractor = (*GeminiExtractor)(nil)

func NewGeminiExtractor(ctx context.Context, apiKey, model string, logger *slog.Logger) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return NewExtractor(client.Models, client.Files, model, logger), nil
}

// NewExtractor builds an extractor. files may be nil, in which case PDFs over
// InlineLimit are rejected with ErrDocumentTooLarge.
func NewExtractor(models ContentGenerator, files FileStore, model string, logger *slog.Logger) *GeminiExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiExtractor{models: models, files: files, model: model, inlineLimit: InlineLimit, logger: logger}
}

// Extract returns the candidate addresses, most likely first. An empty slice
// means the model found none.
func (e *GeminiExtractor) Extract(ctx context.Context, doc address.Document) ([]string, error) {
	parts, cleanup, err := e.documentParts(ctx, doc)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	parts = append(parts, genai.NewPartFromText(prompt))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: generate content: %w", ErrUpstream, err)
	}
	if resp == nil {
		return nil, ErrUnusableResponse
	}
	candidates, err := parseCandidates(resp.Text())
	if err != nil {
		e.logger.Warn("unusable extraction response", "document", doc.Name, "error", err)
		return nil, err
	}
	e.logger.Info("addresses extracted", "document", doc.Name, "candidates", len(candidates))
	return candidates, nil
}

func (e *GeminiExtractor) documentParts(ctx context.Context, doc address.Document) ([]*genai.Part, func(), error) {
	noop := func() {}
	if len(doc.Data) == 0 {
		return nil, noop, ErrEmptyDocument
	}
	switch Sniff(doc.Data, doc.ContentType) {
	case MIMEPDF:
		if len(doc.Data) <= e.inlineLimit {
			return []*genai.Part{genai.NewPartFromBytes(doc.Data, MIMEPDF)}, noop, nil
		}
		return e.uploadPart(ctx, doc)
	case MIMEDOCX:
		text, err := DOCXText(doc.Data)
		if err != nil {
			return nil, noop, fmt.Errorf("read docx: %w", err)
		}
		return []*genai.Part{genai.NewPartFromText("Document text:\n" + text)}, noop, nil
	default:
		return nil, noop, ErrUnsupportedType
	}
}

// uploadPart stores a large PDF with the Files API and references it by URI.
// The returned cleanup deletes the stored file.
func (e *GeminiExtractor) uploadPart(ctx context.Context, doc address.Document) ([]*genai.Part, func(), error) {
	noop := func() {}
	if e.files == nil {
		return nil, noop, ErrDocumentTooLarge
	}
	file, err := e.files.Upload(ctx, bytes.NewReader(doc.Data), &genai.UploadFileConfig{
		MIMEType:    MIMEPDF,
		DisplayName: doc.Name,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, noop, ctx.Err()
		}
		return nil, noop, fmt.Errorf("%w: upload document: %w", ErrUpstream, err)
	}
	e.logger.Info("document uploaded", "document", doc.Name, "file", file.Name, "bytes", len(doc.Data))

	cleanup := func() {
		if _, err := e.files.Delete(context.WithoutCancel(ctx), file.Name, nil); err != nil {
			e.logger.Warn("failed to delete uploaded document", "file", file.Name, "error", err)
		}
	}
	mime := file.MIMEType
	if mime == "" {
		mime = MIMEPDF
	}
	return []*genai.Part{genai.NewPartFromURI(file.URI, mime)}, cleanup, nil
}

func parseCandidates(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrUnusableResponse
	}
	var raw []string
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnusableResponse, err)
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

var ErrNotConfigured = errors.New("document extraction is not configured")

// Unavailable stands in for the extractor when no API key is configured.
type Unavailable struct{}

func (Unavailable) Extract(context.Context, address.Document) ([]string, error) {
	return nil, ErrNotConfigured
}
