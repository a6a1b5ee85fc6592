package model

// Confidence is a coarse indicator of how trustworthy a categorization is.
type Confidence string

// Confidence levels, driven by which method produced the decision.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Method indicates which tier of the categorization pipeline decided.
type Method string

// Categorization methods.
const (
	MethodRule     Method = "rule"
	MethodPattern  Method = "pattern"
	MethodAI       Method = "ai"
	MethodFallback Method = "fallback"
)

// Result is the transient outcome of categorizing one description. It is
// produced fresh on every call and never persisted.
type Result struct {
	Category    string     `json:"category"`
	Confidence  Confidence `json:"confidence"`
	Method      Method     `json:"method"`
	Merchant    string     `json:"merchant"`
	SuggestRule bool       `json:"suggest_rule,omitempty"`
}
