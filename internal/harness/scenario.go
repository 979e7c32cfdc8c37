package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

// DefaultGuild is the guild scenarios run in when they do not name one.
const DefaultGuild = "scenario-guild"

// Scenario defines a film club conformance scenario.
// Steps run in order against a fresh store with a manual clock.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Guild is the guild ID all steps run in. Defaults to DefaultGuild.
	Guild string `yaml:"guild,omitempty"`

	// Start is the clock reading before the first step (RFC3339).
	Start time.Time `yaml:"start"`

	// Steps are the operations to run.
	Steps []Step `yaml:"steps"`

	// ExpectNominations is the expected final ranking, by film ID.
	// Nil skips the check; an empty list expects no open nominations.
	ExpectNominations []string `yaml:"expect_nominations,omitempty"`
}

// Step is one engine operation or a clock advance.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// User is the acting Discord user (nominate, vote, here).
	User string `yaml:"user,omitempty"`

	// Film is the film name (nominate).
	Film string `yaml:"film,omitempty"`

	// FilmID is the target film (vote, watch). On nominate it fixes the ID
	// instead of taking the next generated one.
	FilmID string `yaml:"film_id,omitempty"`

	// IMDb is the optional IMDb ID (nominate).
	IMDb string `yaml:"imdb,omitempty"`

	// Present lists attendees at watch start.
	Present []string `yaml:"present,omitempty"`

	// After is how far to move the clock (advance).
	After time.Duration `yaml:"after,omitempty"`

	// Expect checks the step outcome. Nil expects success.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Error is the expected user error code. Empty expects success.
	Error string `yaml:"error,omitempty"`

	// Status is the expected voting or attendance status.
	Status string `yaml:"status,omitempty"`
}

// Step operations.
const (
	OpNominate = "nominate"
	OpVote     = "vote"
	OpWatch    = "watch"
	OpHere     = "here"
	OpAdvance  = "advance"
)

//go:embed schema.cue
var schemaSource string

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or does not match the scenario schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(path, data)
}

// ParseScenario parses scenario YAML. The filename only labels errors.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSchema(filename, data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.Guild == "" {
		scenario.Guild = DefaultGuild
	}
	return &scenario, nil
}

// validateSchema checks the raw document against #Scenario in schema.cue.
func validateSchema(filename string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("extracting YAML: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("building document: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Scenario")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
