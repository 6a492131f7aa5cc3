package commands

import (
	"fmt"

	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/engine"
	"github.com/bucketrun/bucketrun/planfile"
	"github.com/bucketrun/bucketrun/steps"
)

// stepRegistry builds the planfile.Registry of step kinds a plan file may
// reference. It is the one place a new step kind needs to be wired in to
// become available to the run and serve commands.
func stepRegistry(logFactory logger.LogFactory) planfile.Registry {
	return planfile.Registry{
		"constant": func(def planfile.StepDef, dependents []engine.StepID) (engine.Step, error) {
			value, ok := def.Config["value"]
			if !ok {
				return nil, fmt.Errorf("constant step %s: missing config.value", def.ID)
			}
			return steps.NewConstantStep(def.ID, dependents, value), nil
		},
		"uppercase": func(def planfile.StepDef, dependents []engine.StepID) (engine.Step, error) {
			dependency, err := singleDependency(def)
			if err != nil {
				return nil, err
			}
			return steps.NewTransformStep(def.ID, dependency, dependents, func(in interface{}) interface{} {
				s, ok := in.(string)
				if !ok {
					return in
				}
				out := make([]byte, len(s))
				for i := 0; i < len(s); i++ {
					c := s[i]
					if c >= 'a' && c <= 'z' {
						c -= 'a' - 'A'
					}
					out[i] = c
				}
				return string(out)
			}), nil
		},
		"fetch": func(def planfile.StepDef, dependents []engine.StepID) (engine.Step, error) {
			dependency, err := singleDependency(def)
			if err != nil {
				return nil, err
			}
			return steps.NewFetchStep(def.ID, dependency, dependents, func(in interface{}) (string, error) {
				s, ok := in.(string)
				if !ok {
					return "", fmt.Errorf("fetch step %s: row value is not a URL string", def.ID)
				}
				return s, nil
			}, logFactory), nil
		},
	}
}

func singleDependency(def planfile.StepDef) (engine.StepID, error) {
	if len(def.Dependencies) != 1 {
		return 0, fmt.Errorf("step %s: expected exactly one dependency, got %d", def.ID, len(def.Dependencies))
	}
	return def.Dependencies[0], nil
}
