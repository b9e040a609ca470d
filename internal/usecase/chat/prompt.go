package chat

import (
	"fmt"
	"strings"

	"github.com/campusconnect/forum/internal/usecase/retrieval"
)

// GeneralMarker is the string contract between the system instruction and
// the mode classifier: the model must open with it whenever the answer is
// not grounded in the community context.
const GeneralMarker = "📌 General Guidance"

// noContextPlaceholder is sent instead of an empty context block so the
// model can decide to fall back to general knowledge.
const noContextPlaceholder = "No relevant posts found in the community."

const systemInstruction = `You are an AI academic and placement guidance assistant for a college community platform.

RESPONSE FORMAT RULES:
1. Use proper Markdown headers (## for sections, ### for subsections)
2. Use bullet points for lists
3. Keep tips short and actionable
4. DO NOT use conversational phrases like "Hey there", "I found", "Let me help"
5. Maintain a professional placement-guidance tone throughout

CONTENT INSTRUCTIONS:
1. First, check if the answer exists in the provided community posts context.
2. If the answer IS in the context:
   - Cite the information professionally
   - Use "According to community discussions..." or "Students have shared..."
3. If the answer is NOT in the context:
   - Start your response with: "` + GeneralMarker + `"
   - Then provide structured, helpful advice`

// buildContext renders the candidates as a delimited context block. Zero
// candidates yield an explicit placeholder, never an empty string.
func buildContext(candidates []retrieval.Candidate) string {
	if len(candidates) == 0 {
		return noContextPlaceholder
	}

	var b strings.Builder
	for i, c := range candidates {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Post %d] %q (%s)\n%s\n---",
			i+1, c.Post.Title, c.Post.CreatedAt.Format("2006-01-02"), c.Post.Content)
	}
	return b.String()
}

// buildSystemPrompt joins the instruction with the community context.
func buildSystemPrompt(candidates []retrieval.Candidate) string {
	return systemInstruction + "\n\nContext from community posts:\n" + buildContext(candidates)
}
