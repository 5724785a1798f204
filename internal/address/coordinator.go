// Package address resolves the effective project address from either manual
// entry or the candidates extracted from an uploaded document.
package address

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrNoAddressFound    = errors.New("No address found in the document.")
	ErrManualEntryLocked = errors.New("manual address entry is disabled while extracted candidates exist")
	ErrUnknownCandidate  = errors.New("address is not one of the extracted candidates")
	ErrDocumentPending   = errors.New("a document is already selected; clear it first")
	ErrStaleExtraction   = errors.New("document was cleared before extraction finished")
	ErrExtractionFailed  = errors.New("Document data extraction failed")
)

// Document is an uploaded file.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Extractor returns candidate addresses found in a document.
type Extractor interface {
	Extract(ctx context.Context, doc Document) ([]string, error)
}

// DefaultSelection is the candidate selected before the user picks one.
func DefaultSelection(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

// State is a snapshot of the coordinator.
type State struct {
	Document   *Document
	Candidates []string
	Selected   string
	Manual     string
}

// Coordinator owns the document, candidate, selection and manual-entry state
// for one form. Document, candidates and selection change together.
type Coordinator struct {
	extractor Extractor

	mu         sync.Mutex
	doc        *Document
	candidates []string
	selected   string
	manual     string
	// generation increments on every upload and clear; an extraction result
	// is applied only if the generation it started under is still current.
	generation uint64
}

func NewCoordinator(extractor Extractor) *Coordinator {
	return &Coordinator{extractor: extractor}
}

// Upload selects doc and extracts its candidates. On success the first
// candidate becomes the selection. On failure or an empty result the document
// selection is rolled back and candidates and manual entry are left as they
// were. If Clear runs while extraction is in flight the result is discarded
// and ErrStaleExtraction is returned.
func (c *Coordinator) Upload(ctx context.Context, doc Document) ([]string, error) {
	c.mu.Lock()
	if c.doc != nil {
		c.mu.Unlock()
		return nil, ErrDocumentPending
	}
	c.generation++
	gen := c.generation
	d := doc
	c.doc = &d
	c.mu.Unlock()

	candidates, err := c.extractor.Extract(ctx, doc)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		return nil, ErrStaleExtraction
	}
	if err != nil {
		c.doc = nil
		if errors.Is(err, ErrNoAddressFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if len(candidates) == 0 {
		c.doc = nil
		return nil, ErrNoAddressFound
	}

	c.candidates = slices.Clone(candidates)
	c.selected, _ = DefaultSelection(c.candidates)
	return slices.Clone(c.candidates), nil
}

// Select overrides the default selection with another candidate.
func (c *Coordinator) Select(candidate string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !slices.Contains(c.candidates, candidate) {
		return ErrUnknownCandidate
	}
	c.selected = candidate
	return nil
}

// SetManualAddress updates the typed address. It is rejected while
// candidates exist.
func (c *Coordinator) SetManualAddress(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.candidates) > 0 {
		return ErrManualEntryLocked
	}
	c.manual = value
	return nil
}

func (c *Coordinator) ManualEntryEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.candidates) == 0
}

// EffectiveAddress is the selected candidate if any, else the manual address.
func (c *Coordinator) EffectiveAddress() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected != "" {
		return c.selected
	}
	return c.manual
}

// Clear drops the document, candidates and selection in one step and
// invalidates any extraction still in flight.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.doc = nil
	c.candidates = nil
	c.selected = ""
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Candidates: slices.Clone(c.candidates),
		Selected:   c.selected,
		Manual:     c.manual,
	}
	if c.doc != nil {
		d := *c.doc
		s.Document = &d
	}
	return s
}
