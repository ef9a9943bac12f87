// Package prompt assembles retrieved chunks into a context block and renders the generation prompts.
package prompt

import (
	"fmt"
	"strings"

	"github.com/askhub/hub/internal/models"
)

// FallbackAnswer is returned to the user when the generator produced no text.
const FallbackAnswer = "I'm sorry, I couldn't generate an answer right now. Please try rephrasing your question."

const ragTemplate = `You are a helpful assistant answering questions about the user's uploaded documents, images and audio.

Use only the information in the context below. If the answer is not in the context, say that you could not find it in the uploaded material. Keep the answer concise and use a friendly, conversational tone.

Context:
%s

Question: %s

Answer:`

const greetingTemplate = `You are a friendly assistant for a document question-answering service.

The user greeted you with: %q

Reply warmly in one or two sentences. Explain that you can answer questions about the documents, images and audio they have uploaded, and invite them to ask one.`

// BuildContext renders candidates in rank order as
//
//	[#<rank> | <sourceType>:<sourceName> | score=<score>]
//	<text>
//
// with blocks separated by a blank line. An empty list yields "".
func BuildContext(candidates []models.ScoredCandidate) string {
	if len(candidates) == 0 {
		return ""
	}

	blocks := make([]string, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		blocks[i] = fmt.Sprintf("[#%d | %s:%s | score=%.3f]\n%s", i+1, c.SourceType, c.SourceName, c.Score, c.Text)
	}

	return strings.Join(blocks, "\n\n")
}

// RAGPrompt embeds the context block verbatim and the literal question into the answer instructions.
func RAGPrompt(question, contextBlock string) string {
	return fmt.Sprintf(ragTemplate, contextBlock, question)
}

// GreetingPrompt asks the model to greet the user back and explain what the assistant does.
func GreetingPrompt(message string) string {
	return fmt.Sprintf(greetingTemplate, message)
}

// IsEmptyAnswer reports whether a generated answer carries no text.
func IsEmptyAnswer(answer string) bool {
	return strings.TrimSpace(answer) == ""
}
