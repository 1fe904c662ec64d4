package opr

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// ReportGenerator produces a report from a record. *Generator implements it.
type ReportGenerator interface {
	Generate(ctx context.Context, rec Record) (*Result, error)
}

// State holds the record being edited. Every mutation replaces the whole
// record under a lock, so readers always see a consistent snapshot.
type State struct {
	mu         sync.Mutex
	record     Record
	generating bool
	decoder    ImageDecoder
}

// StateOption configures a State.
type StateOption func(*State)

// WithImageDecoder sets the limits used by AddImages.
func WithImageDecoder(d ImageDecoder) StateOption {
	return func(s *State) { s.decoder = d }
}

// NewState returns a State holding an empty record.
func NewState(opts ...StateOption) *State {
	s := &State{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record returns a snapshot of the current record.
func (s *State) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// ImageCount returns the number of images currently attached.
func (s *State) ImageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.record.Images)
}

// Update sets one field of the record.
func (s *State) Update(f Field, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.record.UpdateField(f, value)
	if err != nil {
		return err
	}
	s.record = next
	return nil
}

// AddResult describes the outcome of AddImages.
type AddResult struct {
	Added  int
	Failed []error
}

// AddImages decodes a batch of images and appends the ones that decode.
// A batch that would take the record past MaxImages is rejected whole with
// ErrCapacityExceeded before anything is read. Decoded images are appended
// in input order in a single update.
func (s *State) AddImages(ctx context.Context, sources []ImageSource) (AddResult, error) {
	if len(sources) == 0 {
		return AddResult{}, nil
	}

	if n := s.ImageCount(); n+len(sources) > MaxImages {
		return AddResult{}, fmt.Errorf("%w: %d + %d exceeds %d", ErrCapacityExceeded, n, len(sources), MaxImages)
	}

	uris, failed := s.decoder.Decode(ctx, sources)
	if err := ctx.Err(); err != nil {
		return AddResult{}, err
	}
	if len(uris) == 0 {
		return AddResult{Failed: failed}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The record may have grown while the batch was decoding.
	if n := len(s.record.Images); n+len(uris) > MaxImages {
		return AddResult{Failed: failed}, fmt.Errorf("%w: %d + %d exceeds %d", ErrCapacityExceeded, n, len(uris), MaxImages)
	}

	next, err := s.record.UpdateField(FieldImages, append(slices.Clone(s.record.Images), uris...))
	if err != nil {
		return AddResult{Failed: failed}, err
	}
	s.record = next
	return AddResult{Added: len(uris), Failed: failed}, nil
}

// RemoveImage removes the image at index i, keeping the others in order.
// An index outside the list is ignored.
func (s *State) RemoveImage(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.record.Images) {
		return
	}
	next, err := s.record.UpdateField(FieldImages, slices.Delete(slices.Clone(s.record.Images), i, i+1))
	if err != nil {
		return
	}
	s.record = next
}

// Generating reports whether a generation is running.
func (s *State) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// Generate runs gen on a snapshot of the record. Only one generation may
// run at a time; a second call returns ErrGenerationInProgress. The record
// is never modified, whatever the outcome.
func (s *State) Generate(ctx context.Context, gen ReportGenerator) (*Result, error) {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return nil, ErrGenerationInProgress
	}
	if !s.record.CanGenerate() {
		s.mu.Unlock()
		return nil, ErrMissingProgramName
	}
	s.generating = true
	rec := s.record.Clone()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.generating = false
		s.mu.Unlock()
	}()

	return gen.Generate(ctx, rec)
}
