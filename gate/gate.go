// Package gate decides whether an app may run, must be blocked until it is
// updated, or should start an in-place update.
//
// Rules are evaluated in order and the first match wins:
//
//  1. no execution context:          ERROR / NO_ACTIVITY
//  2. strict provenance, not Play:   FORCE_BLOCKED / NOT_PLAY_INSTALL
//  3. current >= minimum:            UP_TO_DATE
//  4. not Play, or no updater:       FORCE_BLOCKED / BELOW_MIN_VERSION
//  5. otherwise the live update query decides between UPDATE_STARTED and
//     OPEN_STORE.
//
// The gate holds no per-call state; every Environment is supplied by the caller.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/liamcoop/updategate/internal/logger"
	"github.com/liamcoop/updategate/rules"
	"github.com/liamcoop/updategate/storelink"
)

// CompleteErrorCode is the error code hosts receive when CompleteUpdate fails
const CompleteErrorCode = "COMPLETE_ERROR"

// CompleteError is returned by CompleteUpdate when the platform call fails
type CompleteError struct {
	Err error
}

func (e *CompleteError) Error() string {
	return CompleteErrorCode + ": " + e.Message()
}

// Message is the platform's failure message
func (e *CompleteError) Message() string {
	if e.Err == nil || e.Err.Error() == "" {
		return "unknown"
	}
	return e.Err.Error()
}

func (e *CompleteError) Unwrap() error {
	return e.Err
}

// Gate evaluates update policy. Safe for concurrent use.
type Gate struct {
	engine *rules.Engine
}

// New creates a gate running DefaultPolicy
func New() (*Gate, error) {
	return NewWithPolicy(DefaultPolicy(), rules.DefaultCacheConfig())
}

// NewWithPolicy creates a gate running the given rules
func NewWithPolicy(policy []*rules.Rule, cacheConfig rules.CacheConfig) (*Gate, error) {
	engine, err := rules.NewEngineWithCache(rules.NewInMemoryRuleStore(), rules.NewInMemoryRulesCache(cacheConfig))
	if err != nil {
		return nil, err
	}

	for _, rule := range policy {
		if err := engine.AddRule(rule); err != nil {
			return nil, fmt.Errorf("failed to load policy rule %s: %w", rule.ID, err)
		}
	}

	return &Gate{engine: engine}, nil
}

// Policy returns the active rules in evaluation order
func (g *Gate) Policy() ([]*rules.Rule, error) {
	return g.engine.Rules()
}

// Evaluate runs the policy for one request and always returns a report.
// It blocks only while the live update query is pending; ending ctx turns a
// pending query into OPEN_STORE / PLAY_CORE_ERROR.
func (g *Gate) Evaluate(ctx context.Context, req UpdateRequest, env Environment) DecisionReport {
	req = req.withDefaults(env)
	report := g.evaluate(ctx, req, env)

	logger.RecordDecision(string(report.Action))
	logger.Debug("update gate decision",
		"platform", report.Platform,
		"action", report.Action,
		"reason", report.Reason,
		"currentVersion", report.CurrentVersion,
		"minVersion", report.MinVersion,
		"installerSource", report.InstallerSource,
	)
	return report
}

func (g *Gate) evaluate(ctx context.Context, req UpdateRequest, env Environment) DecisionReport {
	match, failed, err := g.engine.EvaluateFirst(facts(req, env))
	for _, f := range failed {
		logger.Warn("policy rule failed to evaluate", "rule", f.RuleID, "error", f.ErrorText())
	}
	if err != nil {
		logger.Error("policy evaluation failed", "error", err)
		return DecisionReport{Action: ActionError, Platform: env.Platform, Reason: ReasonNoRuleMatched}
	}
	if match == nil {
		logger.Error("no policy rule matched", "platform", env.Platform)
		return DecisionReport{Action: ActionError, Platform: env.Platform, Reason: ReasonNoRuleMatched}
	}

	outcome := match.Outcome
	if Action(outcome.Action) == ActionError {
		return DecisionReport{Action: ActionError, Platform: env.Platform, Reason: Reason(outcome.Reason)}
	}

	report := DecisionReport{
		Action:          Action(outcome.Action),
		Platform:        env.Platform,
		CurrentVersion:  env.currentVersion(),
		MinVersion:      req.MinVersion,
		InstallerSource: env.installerSource(),
		Reason:          Reason(outcome.Reason),
	}
	if outcome.StoreLink {
		report.StoreURL = env.storeURL(req.PackageOrAppID)
	}

	if outcome.Action == actionInPlaceUpdate {
		return g.inPlaceUpdate(ctx, req, env, report)
	}
	return report
}

// inPlaceUpdate resolves rule 5 from the live availability query
func (g *Gate) inPlaceUpdate(ctx context.Context, req UpdateRequest, env Environment, report DecisionReport) DecisionReport {
	updater := env.updater()
	openStore := func(reason Reason) DecisionReport {
		report.Action = ActionOpenStore
		report.Reason = reason
		report.StoreURL = env.storeURL(req.PackageOrAppID)
		return report
	}

	future := updater.QueryAvailability(ctx, req.Mode)
	if future == nil {
		return openStore(PlayCoreError("no availability result"))
	}

	availability, err := future.Wait(ctx)
	if err != nil {
		return openStore(PlayCoreError(err.Error()))
	}

	switch {
	case !availability.Available:
		return openStore(ReasonUpdateNotAvailable)
	case !availability.Allowed:
		return openStore(ReasonUpdateNotAllowed)
	}

	if err := updater.StartUpdateFlow(ctx, req.Mode); err != nil {
		return openStore(StartUpdateFailed(err.Error()))
	}

	report.Action = ActionUpdateStarted
	report.Reason = ReasonBelowMinVersion
	report.StoreURL = ""
	return report
}

// Explain evaluates every policy rule for diagnostics. It never starts an update.
func (g *Gate) Explain(req UpdateRequest, env Environment) ([]*rules.EvaluationResult, error) {
	return g.engine.EvaluateAll(facts(req.withDefaults(env), env))
}

// OpenStore opens the store page for id, or for the running app when id is
// empty. It does nothing without an attached host, an opener or an id.
func (g *Gate) OpenStore(ctx context.Context, env Environment, id string) error {
	if id == "" {
		id = env.AppID
	}
	if !env.Attached || env.Opener == nil || env.Store == nil || id == "" {
		return nil
	}

	if err := storelink.Open(ctx, env.Opener, env.Store, id); err != nil {
		logger.Warn("failed to open store", "platform", env.Platform, "id", id, "error", err)
		return err
	}
	return nil
}

// CompleteUpdate finalizes a started flexible update. Platforms without
// in-place updates succeed immediately.
func (g *Gate) CompleteUpdate(ctx context.Context, env Environment) error {
	updater := env.updater()
	if updater == nil {
		return nil
	}

	if err := updater.CompleteUpdate(ctx); err != nil {
		var completeErr *CompleteError
		if errors.As(err, &completeErr) {
			return completeErr
		}
		return &CompleteError{Err: err}
	}
	return nil
}
