package response

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// sliceStream yields fixed fragments, then optionally an error.
type sliceStream struct {
	frags  []string
	err    error
	pos    int
	closed int
}

func (s *sliceStream) Next(ctx context.Context) (string, bool, error) {
	if s.pos < len(s.frags) {
		s.pos++
		return s.frags[s.pos-1], true, nil
	}
	if s.err != nil {
		return "", false, s.err
	}
	return "", false, nil
}

func (s *sliceStream) Close() error {
	s.closed++
	return nil
}

func TestWrap(t *testing.T) {
	env, err := Wrap(Buffered{Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if len(env.Blocks) != 1 || env.Blocks[0].Kind != KindText || env.Blocks[0].Text != "hi" {
		t.Errorf("envelope = %+v", env.Blocks)
	}

	st := &sliceStream{frags: []string{"a"}}
	env, err = Wrap(Streamed{Stream: st})
	if err != nil {
		t.Fatal(err)
	}
	if env.Blocks[0].Kind != KindStream || env.Blocks[0].Stream != st {
		t.Errorf("stream block = %+v", env.Blocks[0])
	}
	if st.pos != 0 {
		t.Error("Wrap read from the stream")
	}
}

func TestWrap_Invalid(t *testing.T) {
	if _, err := Wrap(nil); !IsCode(err, CodeInternalError) {
		t.Errorf("Wrap(nil) error = %v", err)
	}
	if _, err := Wrap(Streamed{}); !IsCode(err, CodeInternalError) {
		t.Errorf("Wrap(empty stream) error = %v", err)
	}
}

func TestDrain(t *testing.T) {
	st := &sliceStream{frags: []string{"He", "llo"}}
	env := StreamOf(st)
	var seen []string

	text, err := env.Drain(context.Background(), func(f string) { seen = append(seen, f) })
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello" {
		t.Errorf("text = %q", text)
	}
	if len(seen) != 2 || seen[0] != "He" || seen[1] != "llo" {
		t.Errorf("fragments = %q", seen)
	}
	if st.closed == 0 {
		t.Error("stream not closed after drain")
	}
}

func TestDrain_ErrorDropsPartialText(t *testing.T) {
	st := &sliceStream{frags: []string{"He"}, err: Backend(nil, "decode stream fragment")}
	text, err := StreamOf(st).Drain(context.Background(), nil)
	if !IsCode(err, CodeBackendError) {
		t.Errorf("error = %v", err)
	}
	if text != "" {
		t.Errorf("partial text %q returned", text)
	}
}

func TestFromError(t *testing.T) {
	base := Backend(nil, "x")
	if FromError(base) != base {
		t.Error("fault not passed through")
	}
	wrapped := fmt.Errorf("outer: %w", base)
	if FromError(wrapped) != base {
		t.Error("wrapped fault not unwrapped")
	}

	f := FromError(context.DeadlineExceeded)
	if f.Code != CodeBackendError || !f.Timeout {
		t.Errorf("deadline fault = %+v", f)
	}

	f = FromError(errors.New("nil map"))
	if f.Code != CodeInternalError {
		t.Errorf("plain error fault = %+v", f)
	}

	if FromError(nil) != nil {
		t.Error("FromError(nil) != nil")
	}
}

func TestTimedOut(t *testing.T) {
	f := TimedOut(context.DeadlineExceeded, 60000)
	if f.Code != CodeBackendError || !f.Timeout {
		t.Errorf("fault = %+v", f)
	}
	if !errors.Is(f, context.DeadlineExceeded) {
		t.Error("cause not wrapped")
	}
	if got := f.Error(); got[:len("backend-error: timed out after 60000ms")] != "backend-error: timed out after 60000ms" {
		t.Errorf("Error() = %q", got)
	}
}
