package recipe

import (
	"context"
	"testing"
)

func mustParse(t *testing.T, yamlText string) *Recipe {
	t.Helper()
	r, err := Parse([]byte(yamlText))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return r
}

func TestRunner_ShellStepCapturesOutputIntoContext(t *testing.T) {
	r := mustParse(t, `
name: demo
steps:
  - id: greet
    kind: shell
    command_template: "echo hello"
    outputs: [greeting]
`)
	runner := &Runner{}
	result := runner.Run(context.Background(), r, nil, Options{})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.FinalContext["greeting"] != "hello" {
		t.Errorf("final context greeting = %v, want hello", result.FinalContext["greeting"])
	}
}

func TestRunner_DryRunProducesSyntheticSuccessWithoutSideEffects(t *testing.T) {
	r := mustParse(t, `
name: demo
steps:
  - id: would-run
    kind: shell
    command_template: "echo should-not-appear"
    outputs: [out]
`)
	runner := &Runner{}
	result := runner.Run(context.Background(), r, nil, Options{DryRun: true})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if _, ok := result.FinalContext["out"]; ok {
		t.Error("dry_run must not produce real side effects in the context")
	}
}

func TestRunner_WhenGuardSkipsStep(t *testing.T) {
	r := mustParse(t, `
name: demo
context:
  should_run: false
steps:
  - id: conditional-step
    kind: shell
    command_template: "echo ran"
    when: "should_run"
    outputs: [ran]
`)
	runner := &Runner{}
	result := runner.Run(context.Background(), r, nil, Options{})
	if !result.Success {
		t.Fatalf("expected overall success, got %+v", result)
	}
	if !result.StepResults[0].Skipped {
		t.Error("expected the step to be skipped")
	}
	if _, ok := result.FinalContext["ran"]; ok {
		t.Error("skipped step must not set its outputs")
	}
}

func TestRunner_StopsOnFailureWithoutContinueOnError(t *testing.T) {
	r := mustParse(t, `
name: demo
steps:
  - id: fails
    kind: shell
    command_template: "exit 1"
  - id: never-runs
    kind: shell
    command_template: "echo unreachable"
    outputs: [out]
`)
	runner := &Runner{}
	result := runner.Run(context.Background(), r, nil, Options{})
	if result.Success {
		t.Fatal("expected overall failure")
	}
	if len(result.StepResults) != 1 {
		t.Fatalf("expected exactly one step result (stop on failure), got %d", len(result.StepResults))
	}
}

func TestRunner_ContinueOnErrorAllowsSubsequentSteps(t *testing.T) {
	r := mustParse(t, `
name: demo
steps:
  - id: fails
    kind: shell
    command_template: "exit 1"
    continue_on_error: true
  - id: runs-anyway
    kind: shell
    command_template: "echo done"
    outputs: [out]
`)
	runner := &Runner{}
	result := runner.Run(context.Background(), r, nil, Options{})
	if !result.Success {
		t.Fatalf("a run where every failure is continue_on_error should succeed overall, got %+v", result)
	}
	if len(result.StepResults) != 2 {
		t.Fatalf("expected both steps to run, got %d results", len(result.StepResults))
	}
	if result.FinalContext["out"] != "done" {
		t.Errorf("out = %v, want done", result.FinalContext["out"])
	}
}

func TestRunner_SetContextAssignsEvaluatedExpression(t *testing.T) {
	r := mustParse(t, `
name: demo
context:
  base: 2
steps:
  - id: compute
    kind: set_context
    set_context:
      doubled: "base * 2"
`)
	runner := &Runner{}
	result := runner.Run(context.Background(), r, nil, Options{})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.FinalContext["doubled"] != int64(4) {
		t.Errorf("doubled = %v (%T), want int64(4)", result.FinalContext["doubled"], result.FinalContext["doubled"])
	}
}

func TestRunner_AgentInvokeWithoutResolverFails(t *testing.T) {
	r := mustParse(t, `
name: demo
steps:
  - id: ask
    kind: agent_invoke
    agent_ref: "ns:agent"
`)
	runner := &Runner{}
	result := runner.Run(context.Background(), r, nil, Options{})
	if result.Success {
		t.Fatal("expected failure without a configured Resolver")
	}
}

type stubResolver struct{ content string }

func (s stubResolver) Resolve(string) (string, error) { return s.content, nil }

type stubInvoker struct{ output string }

func (s stubInvoker) Invoke(string, map[string]interface{}) (string, bool, error) {
	return s.output, true, nil
}

func TestRunner_AgentInvokeRecordsOutput(t *testing.T) {
	r := mustParse(t, `
name: demo
steps:
  - id: ask
    kind: agent_invoke
    agent_ref: "ns:agent"
    outputs: [answer]
`)
	runner := &Runner{Resolver: stubResolver{content: "# agent"}, Invoker: stubInvoker{output: "42"}}
	result := runner.Run(context.Background(), r, nil, Options{})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.FinalContext["answer"] != "42" {
		t.Errorf("answer = %v, want 42", result.FinalContext["answer"])
	}
}
