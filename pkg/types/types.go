package types

// Email is a mailbox message flattened to the fields the client renders.
// Date keeps the original header text, it is never reparsed.
type Email struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
	Body    string `json:"body"`
}

// Priority is the urgency tier assigned by classification or by fallback.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Weight returns the ordinal used for ranking, higher sorts first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type PrioritizedEmail struct {
	Email
	Priority  Priority `json:"priority"`
	Reasoning string   `json:"reasoning"`
	OriginURL string   `json:"originUrl"`
}
