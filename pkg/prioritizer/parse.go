package prioritizer

import (
	"encoding/json"
	"strings"
)

// ClassificationResult is one per-email verdict pulled out of the model
// reply. It is untrusted input: ids may be unknown or duplicated and the
// priority may be junk, all of which merging tolerates.
type ClassificationResult struct {
	ID        string `json:"id" jsonschema:"required,description=id of the email being classified"`
	Priority  string `json:"priority" jsonschema:"required,enum=high,enum=medium,enum=low"`
	Reasoning string `json:"reasoning" jsonschema:"description=one short sentence explaining the priority"`
}

// MalformedReplyError means the reply text held no parseable result array.
// The raw text is kept for logging.
type MalformedReplyError struct {
	Raw string
}

func (e *MalformedReplyError) Error() string {
	return "classification reply is not a result array"
}

// parseReply extracts the result array from the reply text. The span from
// the first '[' to the last ']' is parsed when present, the whole text
// otherwise. Anything that does not parse strictly is malformed; there is
// no second recovery pass.
func parseReply(content string) ([]ClassificationResult, error) {
	span := content
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start >= 0 && end > start {
		span = content[start : end+1]
	}

	var results []ClassificationResult
	if err := json.Unmarshal([]byte(span), &results); err != nil {
		return nil, &MalformedReplyError{Raw: content}
	}
	return results, nil
}
