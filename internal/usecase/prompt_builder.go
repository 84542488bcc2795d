package usecase

import (
	"fmt"
	"strings"
)

// GatePromptBuilder renders the prompts used by the enrichment wrappers. The
// XML-style tags keep instructions, content, and format visually separated
// for the model.
type GatePromptBuilder struct{}

// NewGatePromptBuilder creates a prompt builder (stateless).
func NewGatePromptBuilder() GatePromptBuilder {
	return GatePromptBuilder{}
}

// QAPrompt asks for question/answer pairs grounded in the chunk.
func (GatePromptBuilder) QAPrompt(content string, count int) string {
	var sb strings.Builder
	sb.WriteString("<instructions>\n")
	fmt.Fprintf(&sb, "Generate %d question and answer pairs that the <content> below can answer.\n", count)
	sb.WriteString("Answer ONLY with a JSON array of objects with \"question\" and \"answer\" string fields.\n")
	sb.WriteString("Every answer must be supported by the content; do not invent facts.\n")
	sb.WriteString("</instructions>\n<content>\n")
	sb.WriteString(escapeTags(content))
	sb.WriteString("\n</content>")
	return sb.String()
}

// SummaryPrompt asks for a bounded summary of the chunk.
func (GatePromptBuilder) SummaryPrompt(content string, maxWords int) string {
	var sb strings.Builder
	sb.WriteString("<instructions>\n")
	fmt.Fprintf(&sb, "Summarize the <content> below in at most %d words.\n", maxWords)
	sb.WriteString("Respond with the summary text only, no preamble.\n")
	sb.WriteString("</instructions>\n<content>\n")
	sb.WriteString(escapeTags(content))
	sb.WriteString("\n</content>")
	return sb.String()
}

// KeywordsPrompt asks for the chunk's most descriptive keywords.
func (GatePromptBuilder) KeywordsPrompt(content string, maxKeywords int) string {
	var sb strings.Builder
	sb.WriteString("<instructions>\n")
	fmt.Fprintf(&sb, "Extract up to %d keywords that best describe the <content> below.\n", maxKeywords)
	sb.WriteString("Answer ONLY with a JSON array of lowercase keyword strings.\n")
	sb.WriteString("</instructions>\n<content>\n")
	sb.WriteString(escapeTags(content))
	sb.WriteString("\n</content>")
	return sb.String()
}

// EnrichmentPrompt asks for a one-sentence situating context for the chunk
// within its source document.
func (GatePromptBuilder) EnrichmentPrompt(content, documentTitle string) string {
	var sb strings.Builder
	sb.WriteString("<instructions>\n")
	sb.WriteString("Write ONE short sentence situating the <content> below within its source document,\n")
	sb.WriteString("to improve retrieval of this passage. Respond with the sentence only.\n")
	sb.WriteString("</instructions>\n")
	if documentTitle != "" {
		sb.WriteString("<document_title>")
		sb.WriteString(escapeTags(documentTitle))
		sb.WriteString("</document_title>\n")
	}
	sb.WriteString("<content>\n")
	sb.WriteString(escapeTags(content))
	sb.WriteString("\n</content>")
	return sb.String()
}

func escapeTags(s string) string {
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}
