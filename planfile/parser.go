package planfile

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-jsonnet"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Parser turns the raw bytes of a plan file into a Document, regardless of
// which of the supported serializations it was written in.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse parses a raw plan file of the given configType into a Document.
func (p *Parser) Parse(config []byte, configType ConfigType) (*Document, error) {
	var (
		raw interface{}
		err error
	)
	switch configType {
	case ConfigTypeYAML:
		raw, err = p.parseFromYAML(config)
	case ConfigTypeJSON:
		raw, err = p.parseFromJSON(config)
	case ConfigTypeJSONNET:
		raw, err = p.parseFromJSONNET(config)
	default:
		return nil, errors.Errorf("unsupported plan file type: %s", configType)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling plan file from %s", configType)
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "error re-marshalling normalized plan file")
	}

	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, errors.Wrap(err, "error decoding plan file into document")
	}
	return &doc, nil
}

func (p *Parser) parseFromYAML(config []byte) (interface{}, error) {
	var raw interface{}
	if err := yaml.Unmarshal(config, &raw); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling yaml")
	}
	return normalizeMapValues(raw), nil
}

func (p *Parser) parseFromJSON(config []byte) (interface{}, error) {
	var raw interface{}
	if err := json.Unmarshal(config, &raw); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling json")
	}
	return raw, nil
}

func (p *Parser) parseFromJSONNET(config []byte) (interface{}, error) {
	vm := jsonnet.MakeVM()
	out, err := vm.EvaluateAnonymousSnippet("planfile.jsonnet", string(config))
	if err != nil {
		return nil, errors.Wrap(err, "error evaluating jsonnet")
	}
	return p.parseFromJSON([]byte(out))
}

// normalizeMapValues converts every map[interface{}]interface{} produced by
// the yaml decoder into a map[string]interface{}, so the result can be
// round-tripped through encoding/json the same way a native JSON document
// would be.
func normalizeMapValues(v interface{}) interface{} {
	switch v := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalizeMapValues(e)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[fmt.Sprintf("%v", k)] = normalizeMapValues(e)
		}
		return out
	default:
		return v
	}
}
