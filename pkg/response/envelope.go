// Package response defines the envelope returned on success, the Fault
// returned on failure, and the conversions between backend results and both.
package response

import (
	"context"
	"strings"
)

// Kind tags a content block.
type Kind string

const (
	KindText   Kind = "text"
	KindStream Kind = "stream"
)

// Stream is a forward-only, single-consumption sequence of text fragments.
//
// Next blocks until the next fragment is available. It returns ok=false with
// a nil error once the sequence is exhausted. After an error or exhaustion
// every further call returns the same outcome. Close releases the backend
// connection and may be called at any time, more than once.
type Stream interface {
	Next(ctx context.Context) (fragment string, ok bool, err error)
	Close() error
}

// Block is one content block of an Envelope. Exactly one of Text or Stream is
// meaningful, selected by Kind.
type Block struct {
	Kind   Kind
	Text   string
	Stream Stream
}

// Envelope is the success shape crossing the system boundary.
type Envelope struct {
	Blocks []Block
}

// Text wraps a complete payload into a single text block.
func Text(s string) *Envelope {
	return &Envelope{Blocks: []Block{{Kind: KindText, Text: s}}}
}

// StreamOf wraps a lazy sequence into a single stream block. The stream is
// not read.
func StreamOf(s Stream) *Envelope {
	return &Envelope{Blocks: []Block{{Kind: KindStream, Stream: s}}}
}

// Drain consumes every block in order and returns the concatenated text.
// emit, when non-nil, observes each stream fragment as it arrives. On a
// stream error all streams are closed and the error is returned as a Fault;
// no partial text is returned.
func (e *Envelope) Drain(ctx context.Context, emit func(fragment string)) (string, error) {
	defer e.Close()
	var b strings.Builder
	for _, blk := range e.Blocks {
		switch blk.Kind {
		case KindText:
			b.WriteString(blk.Text)
		case KindStream:
			text, err := Collect(ctx, blk.Stream, emit)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
		}
	}
	return b.String(), nil
}

// Collect reads s to the end and closes it. Fragments are pulled one at a
// time; emit sees each before the next is requested.
func Collect(ctx context.Context, s Stream, emit func(fragment string)) (string, error) {
	defer s.Close()
	var b strings.Builder
	for {
		frag, ok, err := s.Next(ctx)
		if err != nil {
			return "", FromError(err)
		}
		if !ok {
			return b.String(), nil
		}
		if emit != nil {
			emit(frag)
		}
		b.WriteString(frag)
	}
}

// Close closes every stream block.
func (e *Envelope) Close() {
	for _, blk := range e.Blocks {
		if blk.Kind == KindStream && blk.Stream != nil {
			_ = blk.Stream.Close()
		}
	}
}
