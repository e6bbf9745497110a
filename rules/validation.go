package rules

import (
	"fmt"
	"regexp"
	"strings"
)

var ruleIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateRule checks a rule definition before it is stored.
// Returns an error if validation fails, nil if the rule is valid.
func ValidateRule(rule *Rule) error {
	if rule == nil {
		return fmt.Errorf("rule cannot be nil")
	}

	if err := validateRuleID(rule.ID); err != nil {
		return fmt.Errorf("invalid rule ID %q: %w", rule.ID, err)
	}

	if strings.TrimSpace(rule.Expression) == "" {
		return fmt.Errorf("rule %q has an empty expression", rule.ID)
	}

	if rule.Outcome.Action == "" {
		return fmt.Errorf("rule %q has no outcome action", rule.ID)
	}

	if strings.TrimSpace(rule.Outcome.Action) != rule.Outcome.Action {
		return fmt.Errorf("rule %q has action with leading/trailing whitespace: %q", rule.ID, rule.Outcome.Action)
	}

	return nil
}

// validateRuleID requires 1-100 characters: a lowercase letter followed by
// lowercase letters, digits, underscores or dashes
func validateRuleID(id string) error {
	if len(id) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(id) > 100 {
		return fmt.Errorf("identifier length %d exceeds maximum of 100 characters", len(id))
	}
	if !ruleIDPattern.MatchString(id) {
		return fmt.Errorf("must match pattern %s", ruleIDPattern.String())
	}
	return nil
}
