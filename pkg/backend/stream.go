package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/ormasoftchile/ollama-mcp/pkg/response"
)

const maxFragmentSize = 1 << 20

// ndjsonStream decodes newline-delimited generate fragments one line per
// Next call. Nothing is read ahead of the consumer.
type ndjsonStream struct {
	reqCtx   context.Context
	cancel   context.CancelFunc
	body     io.ReadCloser
	scanner  *bufio.Scanner
	classify func(err error, what string) error

	mu   sync.Mutex
	done bool
	err  error
	once sync.Once
}

func newNDJSONStream(reqCtx context.Context, cancel context.CancelFunc, body io.ReadCloser, classify func(error, string) error) *ndjsonStream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64<<10), maxFragmentSize)
	return &ndjsonStream{
		reqCtx:   reqCtx,
		cancel:   cancel,
		body:     body,
		scanner:  sc,
		classify: classify,
	}
}

// Next returns the next non-empty text delta. Cancelling ctx aborts the
// underlying request.
func (s *ndjsonStream) Next(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return "", false, s.err
	}
	if s.done {
		return "", false, nil
	}
	if err := ctx.Err(); err != nil {
		return s.fail(response.Backend(err, "stream cancelled: %s", err))
	}

	stop := context.AfterFunc(ctx, s.cancel)
	defer stop()

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var frag GenerateResponse
		if err := json.Unmarshal(line, &frag); err != nil {
			return s.fail(response.Backend(err, "decode stream fragment: %s", err))
		}
		if frag.Error != "" {
			return s.fail(response.Backend(nil, "ollama stream error: %s", frag.Error))
		}
		if frag.Done {
			s.finish()
			if frag.Response != "" {
				return frag.Response, true, nil
			}
			return "", false, nil
		}
		if frag.Response != "" {
			return frag.Response, true, nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return s.fail(response.Backend(err, "stream fragment exceeds %d bytes", maxFragmentSize))
		}
		return s.fail(s.classify(err, "read stream"))
	}
	if err := s.reqCtx.Err(); err != nil {
		return s.fail(s.classify(err, "read stream"))
	}
	return s.fail(response.Backend(io.ErrUnexpectedEOF, "stream ended before the final fragment"))
}

// Close releases the connection. Safe to call repeatedly.
func (s *ndjsonStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.body.Close()
		s.cancel()
	})
	return err
}

func (s *ndjsonStream) finish() {
	s.done = true
	_ = s.Close()
}

func (s *ndjsonStream) fail(err error) (string, bool, error) {
	s.err = err
	_ = s.Close()
	return "", false, err
}
