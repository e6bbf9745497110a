package gate

import (
	"github.com/liamcoop/updategate/rules"
)

// actionInPlaceUpdate marks the rule that hands the decision to the live
// update query. It never appears in a report.
const actionInPlaceUpdate = "IN_PLACE_UPDATE"

// DefaultPolicy returns the update gate rules in evaluation order.
// Each call returns fresh rules.
func DefaultPolicy() []*rules.Rule {
	return []*rules.Rule{
		{
			ID:         "no-activity",
			Name:       "No execution context",
			Expression: `!env.attached`,
			Priority:   10,
			Outcome:    rules.Outcome{Action: string(ActionError), Reason: string(ReasonNoActivity)},
			Active:     true,
		},
		{
			ID:         "not-play-install",
			Name:       "Strict provenance requires the first-party store",
			Expression: `request.strictProvenance && env.installerObservable && env.installerSource != "play_store"`,
			Priority:   20,
			Outcome:    rules.Outcome{Action: string(ActionForceBlocked), Reason: string(ReasonNotPlayInstall), StoreLink: true},
			Active:     true,
		},
		{
			ID:         "up-to-date",
			Name:       "Current version satisfies the minimum",
			Expression: `!versionLower(env.currentVersion, request.minVersion)`,
			Priority:   30,
			Outcome:    rules.Outcome{Action: string(ActionUpToDate)},
			Active:     true,
		},
		{
			ID:         "below-min-blocked",
			Name:       "Below minimum without an in-place update path",
			Expression: `!env.inPlaceUpdate || env.installerSource != "play_store"`,
			Priority:   40,
			Outcome:    rules.Outcome{Action: string(ActionForceBlocked), Reason: string(ReasonBelowMinVersion), StoreLink: true},
			Active:     true,
		},
		{
			ID:         "in-place-update",
			Name:       "Below minimum from the first-party store",
			Expression: `true`,
			Priority:   50,
			Outcome:    rules.Outcome{Action: actionInPlaceUpdate, Reason: string(ReasonBelowMinVersion)},
			Active:     true,
		},
	}
}

// facts builds the CEL activation for one evaluation
func facts(req UpdateRequest, env Environment) map[string]any {
	return map[string]any{
		rules.RequestVar: map[string]any{
			"minVersion":       req.MinVersion,
			"mode":             string(req.Mode),
			"packageOrAppId":   req.PackageOrAppID,
			"strictProvenance": req.StrictProvenance,
		},
		rules.EnvVar: map[string]any{
			"platform":            string(env.Platform),
			"attached":            env.Attached,
			"currentVersion":      env.currentVersion(),
			"installerObservable": env.Capabilities.InstallerSource,
			"installerSource":     string(env.installerSource()),
			"inPlaceUpdate":       env.updater() != nil,
		},
	}
}
