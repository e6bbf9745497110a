package rules

import "time"

// Outcome is what a policy rule decides when its expression matches
type Outcome struct {
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	StoreLink bool   `json:"storeLink,omitempty"` // report carries a store URL
}

// Rule represents a single policy rule.
// Lower Priority values are evaluated first.
type Rule struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	Priority   int       `json:"priority"`
	Outcome    Outcome   `json:"outcome"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EvaluationResult contains the outcome of evaluating a rule
type EvaluationResult struct {
	RuleID   string  `json:"ruleId"`
	RuleName string  `json:"ruleName"`
	Matched  bool    `json:"matched"`
	Outcome  Outcome `json:"outcome"`
	Error    error   `json:"-"`
	Trace    any     `json:"-"` // CEL evaluation state (optional)
}

// ErrorText returns the evaluation error message, or "" if none
func (r *EvaluationResult) ErrorText() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}
