package main

import (
	"github.com/liamcoop/updategate/gate"
	"github.com/liamcoop/updategate/platform"
	"github.com/liamcoop/updategate/rules"
	"github.com/liamcoop/updategate/storelink"
)

// CheckRequest is the body of POST /api/v1/check
type CheckRequest struct {
	Platform gate.Platform      `json:"platform"`
	Request  gate.UpdateRequest `json:"request"`
	Facts    platform.Facts     `json:"facts"`
}

// CheckResponse carries one decision
type CheckResponse struct {
	EvaluationID   string               `json:"evaluationId,omitempty"`
	Report         gate.DecisionReport  `json:"report"`
	Rules          []RuleResultResponse `json:"rules,omitempty"` // set with ?explain=true
	EvaluationTime string               `json:"evaluationTime,omitempty"`
}

// RuleResultResponse is one policy rule's evaluation
type RuleResultResponse struct {
	RuleID   string        `json:"ruleId"`
	RuleName string        `json:"ruleName"`
	Matched  bool          `json:"matched"`
	Outcome  rules.Outcome `json:"outcome"`
	Error    string        `json:"error,omitempty"`
}

func newRuleResults(results []*rules.EvaluationResult) []RuleResultResponse {
	out := make([]RuleResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, RuleResultResponse{
			RuleID:   r.RuleID,
			RuleName: r.RuleName,
			Matched:  r.Matched,
			Outcome:  r.Outcome,
			Error:    r.ErrorText(),
		})
	}
	return out
}

// StoreRequest is the body of POST /api/v1/store
type StoreRequest struct {
	Platform       gate.Platform `json:"platform"`
	PackageOrAppID string        `json:"packageOrAppId"`
}

// StoreResponse carries the resolved store links
type StoreResponse struct {
	storelink.Link
	StoreURL string `json:"storeUrl"`
}

// CompleteRequest is the body of POST /api/v1/complete
type CompleteRequest struct {
	Platform gate.Platform  `json:"platform"`
	Facts    platform.Facts `json:"facts"`
}

// CompleteErrorResponse is returned when completing an update fails
type CompleteErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RulesListResponse lists the active policy rules in evaluation order
type RulesListResponse struct {
	Rules []*rules.Rule `json:"rules"`
}

// PlatformsListResponse lists the registered platforms
type PlatformsListResponse struct {
	Platforms []platform.Descriptor `json:"platforms"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string           `json:"status"`
	RulesLoaded int              `json:"rulesLoaded"`
	Checks      int64            `json:"checks"`
	Errors      int64            `json:"errors"`
	Warnings    int64            `json:"warnings"`
	Decisions   map[string]int64 `json:"decisions"`
}
