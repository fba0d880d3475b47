package engine

import (
	"context"
	"io"

	"github.com/codeswap/codeswap/internal/sse"
	"github.com/codeswap/codeswap/internal/stream"
)

// ChatReducer is the single/compare side of the reducer boundary.
type ChatReducer interface {
	Apply(stream.ChatEvent)
	Finish(streamErr error)
}

// CrewReducer is the crew side of the reducer boundary.
type CrewReducer interface {
	Apply(stream.CrewEvent)
	Finish(streamErr error)
}

// RunChat owns the lifecycle of one in-flight single/compare stream: it
// feeds body through frame decoding and event parsing into the reducer, and
// guarantees the reducer's terminal accounting step runs exactly once
// however the stream ends. Cancellation is checked before every suspend
// point, so an abandoned stream stops mutating state.
func RunChat(ctx context.Context, body io.Reader, reducer ChatReducer) (err error) {
	defer func() { reducer.Finish(err) }()

	dec := sse.NewDecoder(body)
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return err
		}
		frame, nextErr := dec.Next()
		if nextErr == io.EOF {
			return nil
		}
		if nextErr != nil {
			err = nextErr
			return err
		}
		ev, ok, parseErr := stream.ParseChatEvent(frame)
		if parseErr != nil {
			err = parseErr
			return err
		}
		if !ok {
			continue
		}
		reducer.Apply(ev)
	}
}

// RunCrew is RunChat for the crew schema. The parser is selected once per
// stream; a stream never mixes schemas.
func RunCrew(ctx context.Context, body io.Reader, reducer CrewReducer) (err error) {
	defer func() { reducer.Finish(err) }()

	dec := sse.NewDecoder(body)
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return err
		}
		frame, nextErr := dec.Next()
		if nextErr == io.EOF {
			return nil
		}
		if nextErr != nil {
			err = nextErr
			return err
		}
		ev, ok, parseErr := stream.ParseCrewEvent(frame)
		if parseErr != nil {
			err = parseErr
			return err
		}
		if !ok {
			continue
		}
		reducer.Apply(ev)
	}
}
