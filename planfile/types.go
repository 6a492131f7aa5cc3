package planfile

import "github.com/bucketrun/bucketrun/engine"

// ConfigType identifies the serialization a plan file is written in.
type ConfigType string

const (
	ConfigTypeYAML    ConfigType = "yaml"
	ConfigTypeJSON    ConfigType = "json"
	ConfigTypeJSONNET ConfigType = "jsonnet"
)

// YAMLPlanFileNames lists the file names recognised as a YAML plan file in
// the root of a project, mirroring how a build config file is located.
var YAMLPlanFileNames = []string{".bucketrun.yaml", "bucketrun.yaml", ".bucketrun.yml", "bucketrun.yml"}

// JSONPlanFileNames lists the file names recognised as a JSON plan file.
var JSONPlanFileNames = []string{".bucketrun.json", "bucketrun.json"}

// JSONNETPlanFileNames lists the file names recognised as a Jsonnet plan file.
var JSONNETPlanFileNames = []string{".bucketrun.jsonnet", "bucketrun.jsonnet"}

// StepDef is one step as written by a human author: an identifier, a kind
// naming which registered step factory builds it, the steps it depends on,
// and kind-specific configuration.
type StepDef struct {
	ID           engine.StepID          `yaml:"id" json:"id"`
	Kind         string                 `yaml:"kind" json:"kind"`
	Dependencies []engine.StepID        `yaml:"dependencies" json:"dependencies"`
	Config       map[string]interface{} `yaml:"config" json:"config"`
}

// Document is a whole plan file: a version tag (for forward compatibility)
// plus the list of steps to compile into a LayerPlan.
type Document struct {
	Version string    `yaml:"version" json:"version"`
	Steps   []StepDef `yaml:"steps" json:"steps"`
}
