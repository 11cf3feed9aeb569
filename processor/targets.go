package processor

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed targets.schema.json
var targetsSchema []byte

// Target is one app build to check
type Target struct {
	Name           string `yaml:"name"`
	Platform       string `yaml:"platform"`
	BundleID       string `yaml:"bundle_id"`
	CurrentVersion string `yaml:"current_version"`
}

// Label names the target in reports
func (t Target) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.BundleID + " (" + t.Platform + ")"
}

type targetsFile struct {
	Targets []Target `yaml:"targets"`
}

// LoadTargets reads a YAML targets file and validates it against the
// embedded schema before decoding.
func LoadTargets(path string) ([]Target, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading targets file: %w", err)
	}
	return ParseTargets(raw)
}

// ParseTargets validates and decodes YAML targets
func ParseTargets(raw []byte) ([]Target, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("error parsing targets yaml: %w", err)
	}
	if err := validateTargets(doc); err != nil {
		return nil, err
	}

	var file targetsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("error decoding targets: %w", err)
	}
	return file.Targets, nil
}

func validateTargets(doc any) error {
	// Round-trip through JSON so the validator sees plain JSON values
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("targets are not representable as JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return fmt.Errorf("error reading targets as JSON: %w", err)
	}

	schema, err := compileTargetsSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("invalid targets file: %w", err)
	}
	return nil
}

func compileTargetsSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(targetsSchema))
	if err != nil {
		return nil, fmt.Errorf("error reading targets schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("targets.schema.json", doc); err != nil {
		return nil, fmt.Errorf("error loading targets schema: %w", err)
	}
	schema, err := c.Compile("targets.schema.json")
	if err != nil {
		return nil, fmt.Errorf("error compiling targets schema: %w", err)
	}
	return schema, nil
}
