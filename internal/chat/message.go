package chat

import (
	"errors"

	"github.com/docuchat/docuchat/internal/domain"
)

// Request is the inbound payload of the chat channel.
type Request struct {
	Question string `json:"question"`
}

// Source cites one passage that grounded an answer.
type Source struct {
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// ErrorPayload is the structured, user-visible form of a failure:
// a machine-readable kind plus a human message, never raw provider
// detail.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Response is the outbound payload of the chat channel.
type Response struct {
	Status  string        `json:"status"`
	Answer  string        `json:"answer,omitempty"`
	Sources []Source      `json:"sources,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
}

// Error payload kinds.
const (
	ErrKindNoKnowledge    = "no_knowledge"
	ErrKindProvider       = "provider_error"
	ErrKindTurnInProgress = "turn_in_progress"
	ErrKindSessionClosed  = "session_closed"
	ErrKindInternal       = "internal_error"
)

// ResponseFor converts the outcome of a turn into the wire payload.
func ResponseFor(answer Answer, err error) Response {
	if err != nil {
		return Response{Status: "error", Error: errorPayloadFor(err)}
	}
	if !answer.Grounded {
		return Response{
			Status: "error",
			Error:  &ErrorPayload{Kind: ErrKindNoKnowledge, Message: answer.Text},
		}
	}
	return Response{Status: "ok", Answer: answer.Text, Sources: answer.Sources}
}

func errorPayloadFor(err error) *ErrorPayload {
	var perr *domain.ProviderError
	switch {
	case errors.As(err, &perr):
		msg := "The model provider is currently unavailable. Please try again."
		if perr.RateLimited {
			msg = "The model provider is rate limiting requests. Please wait and try again."
		}
		return &ErrorPayload{Kind: ErrKindProvider, Message: msg}
	case errors.Is(err, domain.ErrTurnInProgress):
		return &ErrorPayload{Kind: ErrKindTurnInProgress, Message: "A previous question is still being answered."}
	case errors.Is(err, domain.ErrSessionClosed):
		return &ErrorPayload{Kind: ErrKindSessionClosed, Message: "This chat session has ended."}
	default:
		return &ErrorPayload{Kind: ErrKindInternal, Message: "Something went wrong while answering. Please try again."}
	}
}
