// Package recipe defines the on-disk Recipe/Step schema and the Recipe
// Runner that drives an ordered step pipeline against a RecipeContext,
// dispatching to the Subprocess Adapter, the Agent Resolver, and the
// Context Engine: a parsed, immutable description executed by a
// separate runner, loaded and validated before any step runs.
package recipe

import (
	"fmt"
	"regexp"
)

// Kind is the dispatch tag for a Step.
type Kind string

const (
	KindShell       Kind = "shell"
	KindAgentInvoke Kind = "agent_invoke"
	KindSetContext  Kind = "set_context"
	KindConditional Kind = "conditional"
)

var stepIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Step is one unit of recipe execution.
type Step struct {
	ID              string            `yaml:"id"`
	Kind            Kind              `yaml:"kind"`
	CommandTemplate string            `yaml:"command_template,omitempty"`
	AgentRef        string            `yaml:"agent_ref,omitempty"`
	SetContext      map[string]string `yaml:"set_context,omitempty"` // key -> expression text
	When            string            `yaml:"when,omitempty"`
	TimeoutSecs     *float64          `yaml:"timeout_secs,omitempty"`
	ContinueOnError bool              `yaml:"continue_on_error,omitempty"`
	Outputs         []string          `yaml:"outputs,omitempty"`
	Then            []Step            `yaml:"then,omitempty"` // nested sub-steps for kind=conditional
}

// Recipe is a parsed, immutable recipe description.
type Recipe struct {
	Name            string                 `yaml:"name"`
	Version         string                 `yaml:"version,omitempty"`
	Steps           []Step                 `yaml:"steps"`
	ContextDefaults map[string]interface{} `yaml:"context,omitempty"`
	Tags            []string               `yaml:"tags,omitempty"`
}

// Validate checks the schema invariants from the data model: non-empty
// name and steps, unique step IDs matching the step-id grammar.
func (r *Recipe) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("recipe is missing required field %q", "name")
	}
	if len(r.Steps) == 0 {
		return fmt.Errorf("recipe %q must declare at least one step", r.Name)
	}
	seen := make(map[string]bool, len(r.Steps))
	return validateSteps(r.Name, r.Steps, seen)
}

func validateSteps(recipeName string, steps []Step, seen map[string]bool) error {
	for _, s := range steps {
		if s.ID == "" {
			return fmt.Errorf("recipe %q has a step missing required field %q", recipeName, "id")
		}
		if !stepIDPattern.MatchString(s.ID) {
			return fmt.Errorf("recipe %q step %q: id must match [a-z0-9][a-z0-9-]*", recipeName, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("recipe %q has a duplicate step id %q", recipeName, s.ID)
		}
		seen[s.ID] = true

		switch s.Kind {
		case KindShell, KindAgentInvoke, KindSetContext, KindConditional:
		case "":
			return fmt.Errorf("recipe %q step %q is missing required field %q", recipeName, s.ID, "kind")
		default:
			return fmt.Errorf("recipe %q step %q has unknown kind %q", recipeName, s.ID, s.Kind)
		}

		if s.Kind == KindShell && s.CommandTemplate == "" {
			return fmt.Errorf("recipe %q step %q: kind=shell requires command_template", recipeName, s.ID)
		}
		if s.Kind == KindAgentInvoke && s.AgentRef == "" {
			return fmt.Errorf("recipe %q step %q: kind=agent_invoke requires agent_ref", recipeName, s.ID)
		}
		if s.Kind == KindSetContext && len(s.SetContext) == 0 {
			return fmt.Errorf("recipe %q step %q: kind=set_context requires at least one assignment", recipeName, s.ID)
		}
		if s.Kind == KindConditional && len(s.Then) == 0 {
			return fmt.Errorf("recipe %q step %q: kind=conditional requires at least one nested step", recipeName, s.ID)
		}
		if len(s.Then) > 0 {
			if err := validateSteps(recipeName, s.Then, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// StepResult is the outcome of executing one Step.
type StepResult struct {
	StepID          string
	Success         bool
	Skipped         bool
	Stdout          string
	Stderr          string
	ExitCode        int
	DurationSecs    float64
	ContextDelta    map[string]interface{}
	Err             error
	ContinueOnError bool
}

// RecipeResult is the assembled outcome of a full run.
type RecipeResult struct {
	RecipeName   string
	Success      bool
	StepResults  []StepResult
	FinalContext map[string]interface{}
}
