// Package workload decodes, validates, and replays scripted tree workloads and
// runs seeded randomized property checks against a sorted-slice oracle.
package workload

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpInsert    = "insert"
	OpErase     = "erase"
	OpFind      = "find"
	OpMin       = "min"
	OpMax       = "max"
	OpExport    = "export"
	OpVerify    = "verify"
	OpHibernate = "hibernate"
	OpDestroy   = "destroy"
)

// ErrInvalidScript is returned for scripts that fail to parse or validate.
var ErrInvalidScript = errors.New("invalid workload script")

//go:embed schema.json
var scriptSchema []byte

// Script is a named sequence of tree operations.
type Script struct {
	Name string `yaml:"name"`
	// Verify checks tree invariants after every mutating step. Defaults to true.
	Verify *bool  `yaml:"verify"`
	Steps  []Step `yaml:"steps"`
}

// Step is one scripted operation with an optional expectation.
type Step struct {
	Op     string  `yaml:"op"`
	Keys   []int   `yaml:"keys"`
	Range  []int   `yaml:"range"`
	Limit  *int    `yaml:"limit"`
	Expect *Expect `yaml:"expect"`
}

// Expect holds the optional outcome checks of a step. Unset fields are not checked.
type Expect struct {
	Len    *int   `yaml:"len"`
	Found  *bool  `yaml:"found"`
	Erased *bool  `yaml:"erased"`
	Key    *int   `yaml:"key"`
	Empty  *bool  `yaml:"empty"`
	Keys   *[]int `yaml:"keys"`
}

// VerifyEnabled reports whether invariants are checked after mutations.
func (script *Script) VerifyEnabled() bool {
	return script.Verify == nil || *script.Verify
}

// StepKeys returns the explicit keys of the step followed by its half-open range.
func (step Step) StepKeys() []int {
	keys := append([]int(nil), step.Keys...)

	if len(step.Range) == 2 {
		for key := step.Range[0]; key < step.Range[1]; key++ {
			keys = append(keys, key)
		}
	}

	return keys
}

// Decode reads a YAML script, validates it against the embedded JSON schema,
// and returns the typed script.
func Decode(reader io.Reader) (*Script, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var document any

	err = yaml.Unmarshal(raw, &document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	err = Validate(document)
	if err != nil {
		return nil, err
	}

	var script Script

	err = yaml.Unmarshal(raw, &script)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	return &script, nil
}

// Validate checks a decoded YAML document against the script schema.
func Validate(document any) error {
	if document == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidScript)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(scriptSchema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		messages = append(messages, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrInvalidScript, strings.Join(messages, "; "))
}
