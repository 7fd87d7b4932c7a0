package translator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/text/unicode/bidi"

	"github.com/MimeLyc/gemini-sub-translator/internal/subtitle"
)

const (
	rtlEmbedding = "\u202B"
	popFormat    = "\u202C"
)

var codeFenceRe = regexp.MustCompile("```(?:json)?[ \t]*\r?\n?")

var (
	// ErrNotArray is returned when the repaired response is not a JSON array.
	ErrNotArray = errors.New("response is not an array")
	// ErrNoValidItems is returned when every element of the response was dropped.
	ErrNoValidItems = errors.New("no valid translations found in response")
)

// Result is the outcome of validating a model response.
type Result struct {
	Items    []Item
	Warnings []string
}

// Validate turns raw model output into translated items for batch. Elements
// missing a field or carrying an index that was not sent are dropped with a
// warning. Blank lines are removed from content, and content in
// right-to-left scripts is wrapped in an RTL embedding.
func Validate(raw string, batch Batch) (Result, error) {
	var result Result

	cleaned := strings.TrimSpace(codeFenceRe.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return result, fmt.Errorf("response is empty")
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return result, fmt.Errorf("failed to repair response json (%s): %w", summarize(cleaned), err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(repaired), &elements); err != nil {
		return result, fmt.Errorf("%w: %s", ErrNotArray, summarize(repaired))
	}

	for _, element := range elements {
		var fields map[string]any
		if err := json.Unmarshal(element, &fields); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Skipping malformed item: %s", summarize(string(element))))
			continue
		}

		index := stringField(fields["index"])
		content := subtitle.CleanText(stringField(fields["content"]))
		sent, found := batch.Lookup(index)
		// an empty cue may come back empty
		blankCue := found && strings.TrimSpace(sent.Content) == ""
		if index == "" || (content == "" && !blankCue) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Missing fields in translated item: %s", summarize(string(element))))
			continue
		}
		if !found {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Index %s not found in original batch", index))
			continue
		}

		result.Items = append(result.Items, Item{Index: index, Content: WrapRTL(content)})
	}

	if len(result.Items) == 0 {
		return result, ErrNoValidItems
	}
	return result, nil
}

// WrapRTL wraps text in U+202B/U+202C when it contains right-to-left script.
func WrapRTL(text string) string {
	if !containsRTL(text) || strings.HasPrefix(text, rtlEmbedding) {
		return text
	}
	return rtlEmbedding + text + popFormat
}

func containsRTL(text string) bool {
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.R, bidi.AL:
			return true
		}
	}
	return false
}

func stringField(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

func summarize(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}
