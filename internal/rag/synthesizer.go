package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/docuchat/docuchat/internal/domain"
	"github.com/docuchat/docuchat/internal/llm"
)

// NoKnowledgeAnswer is returned when retrieval finds nothing to ground
// an answer on. The completion model is not consulted in that case.
const NoKnowledgeAnswer = "No relevant context was found for your question. " +
	"Upload documents to build the retrieval database first."

const systemMessage = "You are a helpful assistant."

// Synthesizer builds a grounded prompt from retrieved passages and
// conversation history and calls the completion model.
type Synthesizer struct {
	client llm.Client
}

// NewSynthesizer creates an answer synthesizer.
func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{client: client}
}

// Synthesize produces the answer for a question. When results is empty
// it returns NoKnowledgeAnswer without any provider call; otherwise it
// prompts the completion model with the ranked passages and history.
// Provider failures propagate unretried.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, results []domain.SearchResult, history []domain.Turn) (string, error) {
	if len(results) == 0 {
		return NoKnowledgeAnswer, nil
	}

	answer, err := s.client.Generate(ctx, systemMessage, s.BuildPrompt(question, results, history))
	if err != nil {
		return "", err
	}
	return answer, nil
}

// BuildPrompt assembles the completion prompt: ranked passages highest
// similarity first, each tagged with its source for citation, then the
// prior turns in order, then the question.
func (s *Synthesizer) BuildPrompt(question string, results []domain.SearchResult, history []domain.Turn) string {
	var blocks []string
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("From %s (chunk %d):\n%s", r.Record.Filename, r.Record.ChunkIndex, r.Record.Text))
	}

	var b strings.Builder
	b.WriteString("You are a retrieval augmented assistant. Use the provided context to answer ")
	b.WriteString("the user's question. If the context is insufficient, say so explicitly.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))

	if len(history) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for _, turn := range history {
			b.WriteString("User: ")
			b.WriteString(turn.Question)
			b.WriteString("\nAssistant: ")
			b.WriteString(turn.Answer)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
