package translator

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	thinkDirective   = "Think deeply and reason as much as possible before returning the response."
	noThinkDirective = "Do NOT think or reason."
)

// PromptOptions controls the system instruction sent with every batch.
type PromptOptions struct {
	TargetLanguage string
	Model          string
	Thinking       bool
	Description    string
}

// BuildInstruction returns the system instruction for a translation session.
func BuildInstruction(opts PromptOptions) string {
	var prompt strings.Builder

	prompt.WriteString("You are an assistant that translates subtitles from any language to " + opts.TargetLanguage + ".\n")
	prompt.WriteString("You will receive a list of objects, each with two fields:\n\n")
	prompt.WriteString("- index: a string identifier\n")
	prompt.WriteString("- content: the subtitle text to translate\n\n")
	prompt.WriteString("Translate ONLY the 'content' field of each object.\n")
	prompt.WriteString("Keep line breaks, formatting, and special characters.\n")
	prompt.WriteString("Do NOT move or merge 'content' between objects.\n")
	prompt.WriteString("Do NOT add or remove any objects.\n")
	prompt.WriteString("Do NOT make any changes to the 'index' field.")

	if SupportsThinking(opts.Model) {
		if opts.Thinking {
			prompt.WriteString("\n" + thinkDirective)
		} else {
			prompt.WriteString("\n" + noThinkDirective)
		}
	}

	if desc := strings.TrimSpace(opts.Description); desc != "" {
		prompt.WriteString("\n\nAdditional user instruction:\n\n" + desc)
	}

	return prompt.String()
}

// BuildRequest serializes the batch as the JSON array sent to the model.
func BuildRequest(batch Batch) (string, error) {
	items := batch.Items
	if items == nil {
		items = []Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode batch: %w", err)
	}
	return string(payload), nil
}

// SupportsThinking reports whether model accepts a thinking budget.
func SupportsThinking(model string) bool {
	name := strings.ToLower(strings.TrimPrefix(model, "models/"))
	return strings.Contains(name, "thinking") ||
		strings.HasPrefix(name, "gemini-2.5") ||
		strings.HasPrefix(name, "gemini-3")
}

// TokenLimit is the input token limit assumed for model.
func TokenLimit(model string) int {
	if strings.Contains(strings.ToLower(model), "pro") {
		return 1_000_000
	}
	return 100_000
}

// EstimateTokens approximates the token count of a request at four
// characters per token.
func EstimateTokens(parts ...string) int {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	return total / 4
}
