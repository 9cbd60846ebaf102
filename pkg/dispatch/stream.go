package dispatch

import (
	"context"
	"sync"

	"github.com/ormasoftchile/ollama-mcp/pkg/response"
)

// observedStream reports the outcome of a stream exactly once: at
// exhaustion, at the first error, or at Close if neither happened.
type observedStream struct {
	response.Stream
	once   sync.Once
	finish func(error)
}

func (s *observedStream) Next(ctx context.Context) (string, bool, error) {
	frag, ok, err := s.Stream.Next(ctx)
	if err != nil || !ok {
		s.report(err)
	}
	return frag, ok, err
}

func (s *observedStream) Close() error {
	err := s.Stream.Close()
	s.report(nil)
	return err
}

func (s *observedStream) report(err error) {
	s.once.Do(func() { s.finish(err) })
}

// observeStreams wraps the stream blocks of env so that finish runs when the
// last of them completes. It reports whether env had any stream blocks.
func observeStreams(env *response.Envelope, finish func(error)) bool {
	if env == nil {
		return false
	}
	var pending int
	for _, blk := range env.Blocks {
		if blk.Kind == response.KindStream && blk.Stream != nil {
			pending++
		}
	}
	if pending == 0 {
		return false
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	done := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		pending--
		if pending == 0 {
			finish(firstErr)
		}
	}
	for i, blk := range env.Blocks {
		if blk.Kind == response.KindStream && blk.Stream != nil {
			env.Blocks[i].Stream = &observedStream{Stream: blk.Stream, finish: done}
		}
	}
	return true
}
