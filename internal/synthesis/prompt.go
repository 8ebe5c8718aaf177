package synthesis

import (
	"strings"

	"github.com/helixir/review-synthesis-service/internal/llm"
)

// summarySchema is given to the model verbatim.
const summarySchema = `{
  "paragraphs": [],
  "key_findings": [],
  "limitations": [],
  "future_work": [],
  "methods": [],
  "whats_new": [],
  "open_problems": [],
  "top5_papers": []
}`

// BuildPrompt returns the fixed two-message conversation. The system
// message carries the output contract; the user message carries the
// synthesis instructions and the digest.
func BuildPrompt(digest string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: buildSystemPrompt()},
		{Role: llm.RoleUser, Content: buildUserPrompt(digest)},
	}
}

func buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are an expert scientific reviewer. ")
	sb.WriteString("Produce deep, accurate, multi-paper literature summaries.\n\n")

	sb.WriteString("You MUST respond with a single valid JSON object in exactly this format:\n")
	sb.WriteString(summarySchema)
	sb.WriteString("\n\n")

	sb.WriteString("Every value is a list. Items of top5_papers are objects like ")
	sb.WriteString(`{"title": "...", "url": "..."}`)
	sb.WriteString("; every other list holds strings.\n")
	sb.WriteString("ABSOLUTELY NO TEXT OUTSIDE JSON.")

	return sb.String()
}

func buildUserPrompt(digest string) string {
	var sb strings.Builder

	sb.WriteString("Summarize ALL papers provided. Produce a structured literature review.\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("- Write 2-4 paragraphs (technical, dense, coherent).\n")
	sb.WriteString("- Extract REAL findings from the abstracts.\n")
	sb.WriteString("- Do NOT hallucinate unavailable information.\n")
	sb.WriteString("- Leave sections empty if papers do not mention them.\n")
	sb.WriteString("- List at most five entries in top5_papers, using the titles and URLs given below.\n\n")

	sb.WriteString("PAPERS:\n")
	sb.WriteString(digest)

	return sb.String()
}
