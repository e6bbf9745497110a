// Package rules compiles and evaluates CEL policy rules.
package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// costLimit bounds a single expression evaluation
const costLimit = 1000000

// Engine manages the CEL environment and rule compilation/evaluation.
// Safe for concurrent use.
type Engine struct {
	env      *cel.Env
	store    RuleStore
	cache    RulesCache
	programs map[string]cel.Program // ruleID -> compiled program
	mu       sync.RWMutex
}

// NewEngine creates a rules engine over the policy CEL environment
func NewEngine(store RuleStore) (*Engine, error) {
	return NewEngineWithCache(store, NewInMemoryRulesCache(DefaultCacheConfig()))
}

// NewEngineWithCache creates a rules engine over the policy CEL environment
// using the given rule list cache
func NewEngineWithCache(store RuleStore, cache RulesCache) (*Engine, error) {
	env, err := NewPolicyEnv()
	if err != nil {
		return nil, err
	}
	return NewEngineWithEnv(env, store, cache)
}

// NewEngineWithEnv creates a rules engine with a custom CEL environment and
// compiles every active rule in store
func NewEngineWithEnv(env *cel.Env, store RuleStore, cache RulesCache) (*Engine, error) {
	en := &Engine{
		env:      env,
		store:    store,
		cache:    cache,
		programs: make(map[string]cel.Program),
	}

	if err := en.CompileAllRules(); err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	return en, nil
}

// CompileRule compiles a single rule expression and caches the program
func (en *Engine) CompileRule(ruleID, expression string) error {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := en.env.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(costLimit),
	)
	if err != nil {
		return fmt.Errorf("program creation error: %w", err)
	}

	en.mu.Lock()
	en.programs[ruleID] = prog
	en.mu.Unlock()

	return nil
}

// CompileAllRules compiles all active rules from the store and primes the cache
func (en *Engine) CompileAllRules() error {
	rules, err := en.store.ListActive()
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := en.CompileRule(rule.ID, rule.Expression); err != nil {
			return fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
		}
	}

	en.cache.Set(rules)

	return nil
}

// AddRule compiles a rule and adds it to the store.
// The compiled program is discarded if the store rejects the rule.
func (en *Engine) AddRule(r *Rule) error {
	if _, err := en.store.Get(r.ID); err == nil {
		return fmt.Errorf("rule with ID %s already exists", r.ID)
	}

	if err := en.CompileRule(r.ID, r.Expression); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Add(r); err != nil {
		en.mu.Lock()
		delete(en.programs, r.ID)
		en.mu.Unlock()
		return err
	}

	en.cache.Invalidate()

	return nil
}

// Rules returns the active rules in evaluation order
func (en *Engine) Rules() ([]*Rule, error) {
	if rules := en.cache.Get(); rules != nil {
		return rules, nil
	}

	rules, err := en.store.ListActive()
	if err != nil {
		return nil, err
	}
	en.cache.Set(rules)
	return rules, nil
}

// Evaluate evaluates a single rule against the provided facts.
// Non-boolean results count as no match.
func (en *Engine) Evaluate(ruleID string, facts map[string]any) (*EvaluationResult, error) {
	rule, err := en.store.Get(ruleID)
	if err != nil {
		return nil, err
	}

	result := en.eval(rule, facts)
	return result, result.Error
}

// EvaluateAll evaluates every active rule in order.
// A rule that fails to evaluate is reported in its result; evaluation continues.
func (en *Engine) EvaluateAll(facts map[string]any) ([]*EvaluationResult, error) {
	rules, err := en.Rules()
	if err != nil {
		return nil, err
	}

	results := make([]*EvaluationResult, 0, len(rules))
	for _, rule := range rules {
		results = append(results, en.eval(rule, facts))
	}
	return results, nil
}

// EvaluateFirst returns the first active rule, in priority order, whose
// expression matches. Rules that fail to evaluate are skipped and returned
// alongside so the caller can report them. The match is nil if no rule matched.
func (en *Engine) EvaluateFirst(facts map[string]any) (match *EvaluationResult, failed []*EvaluationResult, err error) {
	rules, err := en.Rules()
	if err != nil {
		return nil, nil, err
	}

	for _, rule := range rules {
		result := en.eval(rule, facts)
		if result.Error != nil {
			failed = append(failed, result)
			continue
		}
		if result.Matched {
			return result, failed, nil
		}
	}
	return nil, failed, nil
}

func (en *Engine) eval(rule *Rule, facts map[string]any) *EvaluationResult {
	result := &EvaluationResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Outcome:  rule.Outcome,
	}

	en.mu.RLock()
	prog, exists := en.programs[rule.ID]
	en.mu.RUnlock()

	if !exists {
		result.Error = fmt.Errorf("rule %s is not compiled", rule.ID)
		return result
	}

	out, details, err := prog.Eval(facts)
	if err != nil {
		result.Error = err
		return result
	}

	if boolVal, ok := out.Value().(bool); ok {
		result.Matched = boolVal
	}
	if details != nil {
		result.Trace = details.State()
	}
	return result
}
