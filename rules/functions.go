package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/liamcoop/updategate/version"
)

// Top-level variables available to policy expressions
const (
	RequestVar = "request"
	EnvVar     = "env"
)

// NewPolicyEnv creates the CEL environment policy rules compile against.
// request and env are dynamic maps; versionLower(current, min) exposes the
// version comparator.
func NewPolicyEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable(RequestVar, cel.DynType),
		cel.Variable(EnvVar, cel.DynType),
		versionFunctions(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

func versionFunctions() cel.EnvOption {
	return cel.Function("versionLower",
		cel.Overload("versionLower_string_string",
			[]*cel.Type{cel.StringType, cel.StringType},
			cel.BoolType,
			cel.BinaryBinding(func(current, min ref.Val) ref.Val {
				c, ok := current.(types.String)
				if !ok {
					return types.MaybeNoSuchOverloadErr(current)
				}
				m, ok := min.(types.String)
				if !ok {
					return types.MaybeNoSuchOverloadErr(min)
				}
				return types.Bool(version.IsLower(string(c), string(m)))
			}),
		),
	)
}
