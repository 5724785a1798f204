package address

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	candidates []string
	err        error
}

func (s stubExtractor) Extract(context.Context, Document) ([]string, error) {
	return s.candidates, s.err
}

// blockingExtractor returns once release is closed.
type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
	result  []string
}

func (b *blockingExtractor) Extract(context.Context, Document) ([]string, error) {
	close(b.started)
	<-b.release
	return b.result, nil
}

var plan = Document{Name: "plan.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.7")}

func TestDefaultSelection(t *testing.T) {
	got, ok := DefaultSelection([]string{"123 Main St", "456 Oak Ave"})
	assert.True(t, ok)
	assert.Equal(t, "123 Main St", got)

	_, ok = DefaultSelection(nil)
	assert.False(t, ok)
}

func TestCoordinator_FirstCandidateUntilSelected(t *testing.T) {
	c := NewCoordinator(stubExtractor{candidates: []string{"123 Main St", "456 Oak Ave"}})

	got, err := c.Upload(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"123 Main St", "456 Oak Ave"}, got)
	assert.Equal(t, "123 Main St", c.EffectiveAddress())

	require.NoError(t, c.Select("456 Oak Ave"))
	assert.Equal(t, "456 Oak Ave", c.EffectiveAddress())
	assert.ErrorIs(t, c.Select("789 Elm Rd"), ErrUnknownCandidate)
}

func TestCoordinator_ManualEntryLockedWhileCandidatesExist(t *testing.T) {
	c := NewCoordinator(stubExtractor{candidates: []string{"123 Main St"}})

	require.NoError(t, c.SetManualAddress("1 Typed Rd"))
	assert.Equal(t, "1 Typed Rd", c.EffectiveAddress())

	_, err := c.Upload(context.Background(), plan)
	require.NoError(t, err)
	assert.False(t, c.ManualEntryEnabled())
	assert.ErrorIs(t, c.SetManualAddress("2 Typed Rd"), ErrManualEntryLocked)
	assert.Equal(t, "123 Main St", c.EffectiveAddress())

	c.Clear()
	assert.True(t, c.ManualEntryEnabled())
	assert.Equal(t, "1 Typed Rd", c.EffectiveAddress())
}

func TestCoordinator_ClearResetsTogether(t *testing.T) {
	c := NewCoordinator(stubExtractor{candidates: []string{"123 Main St", "456 Oak Ave"}})
	_, err := c.Upload(context.Background(), plan)
	require.NoError(t, err)
	require.NotNil(t, c.State().Document)

	c.Clear()
	s := c.State()
	assert.Nil(t, s.Document)
	assert.Empty(t, s.Candidates)
	assert.Empty(t, s.Selected)
}

func TestCoordinator_NoCandidatesRollsBackDocument(t *testing.T) {
	c := NewCoordinator(stubExtractor{})
	require.NoError(t, c.SetManualAddress("1 Typed Rd"))

	_, err := c.Upload(context.Background(), plan)
	require.Error(t, err)
	assert.Equal(t, "No address found in the document.", err.Error())

	s := c.State()
	assert.Nil(t, s.Document)
	assert.Empty(t, s.Candidates)
	assert.Equal(t, "1 Typed Rd", s.Manual)
}

func TestCoordinator_ExtractorFailureRollsBackDocument(t *testing.T) {
	c := NewCoordinator(stubExtractor{err: errors.New("connection refused")})

	_, err := c.Upload(context.Background(), plan)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Nil(t, c.State().Document)

	// the user can retry with another file
	c.extractor = stubExtractor{candidates: []string{"123 Main St"}}
	_, err = c.Upload(context.Background(), plan)
	assert.NoError(t, err)
}

func TestCoordinator_SecondUploadNeedsClear(t *testing.T) {
	c := NewCoordinator(stubExtractor{candidates: []string{"123 Main St"}})
	_, err := c.Upload(context.Background(), plan)
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), plan)
	assert.ErrorIs(t, err, ErrDocumentPending)
}

func TestCoordinator_DiscardsResultAfterClear(t *testing.T) {
	ext := &blockingExtractor{
		started: make(chan struct{}),
		release: make(chan struct{}),
		result:  []string{"123 Main St"},
	}
	c := NewCoordinator(ext)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Upload(context.Background(), plan)
		errc <- err
	}()

	select {
	case <-ext.started:
	case <-time.After(time.Second):
		t.Fatal("extraction did not start")
	}
	c.Clear()
	close(ext.release)

	assert.ErrorIs(t, <-errc, ErrStaleExtraction)
	s := c.State()
	assert.Nil(t, s.Document)
	assert.Empty(t, s.Candidates)
	assert.Empty(t, c.EffectiveAddress())
}
