package response

// Result is what an invoker hands back: either Buffered or Streamed.
type Result interface {
	isResult()
}

// Buffered is a complete text payload.
type Buffered struct {
	Text string
}

// Streamed is a lazy sequence of fragments produced by the backend.
type Streamed struct {
	Stream Stream
}

func (Buffered) isResult() {}
func (Streamed) isResult() {}

// Wrap converts a backend result into an envelope without reading it.
func Wrap(r Result) (*Envelope, error) {
	switch v := r.(type) {
	case Buffered:
		return Text(v.Text), nil
	case *Buffered:
		return Text(v.Text), nil
	case Streamed:
		if v.Stream == nil {
			return nil, Internal(nil, "streamed result has no stream")
		}
		return StreamOf(v.Stream), nil
	case *Streamed:
		if v.Stream == nil {
			return nil, Internal(nil, "streamed result has no stream")
		}
		return StreamOf(v.Stream), nil
	case nil:
		return nil, Internal(nil, "backend returned no result")
	}
	return nil, Internal(nil, "unsupported result type %T", r)
}
