package recipe

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vinayprograms/recipeflow/internal/contextstore"
	"github.com/vinayprograms/recipeflow/internal/exprlang"
	"github.com/vinayprograms/recipeflow/internal/subprocess"
)

var tracer = otel.Tracer("recipeflow")

var (
	errNoResolver = errors.New("recipe runner has no AgentResolver configured")
	errNoInvoker  = errors.New("recipe runner has no Invoker configured")
)

// AgentResolver maps an agent reference to its resolved content. Satisfied
// by *agentref.Resolver; declared here so this package does not need to
// import agentref directly.
type AgentResolver interface {
	Resolve(reference string) (string, error)
}

// Invoker is the external collaborator that turns resolved agent content
// into an actual model/tool invocation. The Runner never interprets the
// content itself — that is the Invoker's job.
type Invoker interface {
	Invoke(agentContent string, ctx map[string]interface{}) (output string, success bool, err error)
}

// Options configures one Run call.
type Options struct {
	DryRun         bool
	WorkingDir     string
	Verbose        bool
	DefaultTimeout time.Duration
	Grace          time.Duration
}

// Runner executes Recipes against a RecipeContext.
type Runner struct {
	Resolver AgentResolver
	Invoker  Invoker
}

// Run executes every step of rec in order: build context, evaluate
// guards, dispatch by kind, merge outputs, and stop at the first
// non-continuable failure.
func (r *Runner) Run(goCtx context.Context, rec *Recipe, userContext map[string]interface{}, opts Options) RecipeResult {
	goCtx, span := tracer.Start(goCtx, "recipe.run")
	span.SetAttributes(attribute.String("recipe.name", rec.Name), attribute.Int("recipe.steps", len(rec.Steps)))
	defer span.End()

	ctx := contextstore.Merge(
		contextstore.FromInterfaceMap(rec.ContextDefaults),
		contextstore.FromInterfaceMap(userContext),
	)

	results := make([]StepResult, 0, len(rec.Steps))

	for _, step := range rec.Steps {
		stepResults, stop := r.runStep(goCtx, ctx, step, opts)
		results = append(results, stepResults...)
		if stop {
			break
		}
	}

	return RecipeResult{
		RecipeName:   rec.Name,
		Success:      overallSuccess(results),
		StepResults:  results,
		FinalContext: contextstore.ToInterfaceMap(ctx.Snapshot()),
	}
}

// overallSuccess implements the RecipeResult success invariant: plain
// AND of every step's success, except that a run where every failing
// step was marked continue_on_error is still considered successful
// overall.
func overallSuccess(results []StepResult) bool {
	anyFailure := false
	allFailuresContinuable := true
	for _, sr := range results {
		if sr.Success || sr.Skipped {
			continue
		}
		anyFailure = true
		if !sr.ContinueOnError {
			allFailuresContinuable = false
		}
	}
	return !anyFailure || allFailuresContinuable
}

// runStep executes one step (recursing into nested steps for
// kind=conditional) and reports whether the caller should stop the run.
func (r *Runner) runStep(goCtx context.Context, ctx *contextstore.Context, step Step, opts Options) (results []StepResult, stop bool) {
	goCtx, span := tracer.Start(goCtx, "recipe.step")
	span.SetAttributes(attribute.String("step.id", step.ID), attribute.String("step.kind", string(step.Kind)))
	defer span.End()

	if step.When != "" {
		guard, err := exprlang.Evaluate(step.When, ctx)
		if err != nil {
			span.RecordError(err)
			sr := StepResult{StepID: step.ID, Success: false, Err: err, ContinueOnError: step.ContinueOnError}
			return []StepResult{sr}, !step.ContinueOnError
		}
		if !guard.Truthy() {
			return []StepResult{{StepID: step.ID, Success: true, Skipped: true}}, false
		}
	}

	if opts.DryRun {
		return []StepResult{{StepID: step.ID, Success: true}}, false
	}

	var sr StepResult
	switch step.Kind {
	case KindShell:
		sr = r.runShell(goCtx, ctx, step, opts)
	case KindAgentInvoke:
		sr = r.runAgentInvoke(ctx, step)
	case KindSetContext:
		sr = r.runSetContext(ctx, step)
	case KindConditional:
		return r.runConditional(goCtx, ctx, step, opts)
	}
	sr.ContinueOnError = step.ContinueOnError
	if sr.Err != nil {
		span.RecordError(sr.Err)
	}

	results = []StepResult{sr}
	if !sr.Success && !step.ContinueOnError {
		return results, true
	}
	return results, false
}

func (r *Runner) runConditional(goCtx context.Context, ctx *contextstore.Context, step Step, opts Options) ([]StepResult, bool) {
	var out []StepResult
	for _, nested := range step.Then {
		nestedResults, stop := r.runStep(goCtx, ctx, nested, opts)
		out = append(out, nestedResults...)
		if stop {
			return out, true
		}
	}
	return out, false
}

func (r *Runner) runShell(goCtx context.Context, ctx *contextstore.Context, step Step, opts Options) StepResult {
	start := time.Now()
	command, err := ctx.RenderShell(step.CommandTemplate)
	if err != nil {
		return StepResult{StepID: step.ID, Success: false, Err: err, DurationSecs: time.Since(start).Seconds()}
	}

	timeout := opts.DefaultTimeout
	if step.TimeoutSecs != nil {
		timeout = time.Duration(*step.TimeoutSecs * float64(time.Second))
	}

	res := subprocess.Spawn(goCtx, subprocess.Spec{
		Argv:       []string{"/bin/sh", "-c", command},
		WorkingDir: opts.WorkingDir,
		Timeout:    timeout,
		Grace:      opts.Grace,
	})

	delta := applyOutputs(ctx, step.Outputs, strings.TrimRight(res.Stdout, "\n"))

	return StepResult{
		StepID:       step.ID,
		Success:      res.Success,
		Stdout:       res.Stdout,
		Stderr:       res.Stderr,
		ExitCode:     res.ExitCode,
		DurationSecs: res.Duration.Seconds(),
		ContextDelta: delta,
		Err:          res.Err,
	}
}

func (r *Runner) runAgentInvoke(ctx *contextstore.Context, step Step) StepResult {
	start := time.Now()
	if r.Resolver == nil {
		return StepResult{StepID: step.ID, Success: false, Err: errNoResolver}
	}
	content, err := r.Resolver.Resolve(step.AgentRef)
	if err != nil {
		return StepResult{StepID: step.ID, Success: false, Err: err, DurationSecs: time.Since(start).Seconds()}
	}
	if r.Invoker == nil {
		return StepResult{StepID: step.ID, Success: false, Err: errNoInvoker}
	}
	output, ok, err := r.Invoker.Invoke(content, contextstore.ToInterfaceMap(ctx.Snapshot()))
	if err != nil {
		return StepResult{StepID: step.ID, Success: false, Err: err, DurationSecs: time.Since(start).Seconds()}
	}

	delta := applyOutputs(ctx, step.Outputs, output)
	return StepResult{
		StepID:       step.ID,
		Success:      ok,
		Stdout:       output,
		DurationSecs: time.Since(start).Seconds(),
		ContextDelta: delta,
	}
}

func (r *Runner) runSetContext(ctx *contextstore.Context, step Step) StepResult {
	start := time.Now()
	delta := make(map[string]interface{}, len(step.SetContext))
	for key, expr := range step.SetContext {
		v, err := exprlang.Evaluate(expr, ctx)
		if err != nil {
			return StepResult{StepID: step.ID, Success: false, Err: err, DurationSecs: time.Since(start).Seconds()}
		}
		ctx.Set(key, v)
		delta[key] = contextstore.ToInterface(v)
	}
	return StepResult{StepID: step.ID, Success: true, ContextDelta: delta, DurationSecs: time.Since(start).Seconds()}
}

// applyOutputs assigns value to every declared output key and returns
// the resulting context delta for the StepResult.
func applyOutputs(ctx *contextstore.Context, outputs []string, value string) map[string]interface{} {
	if len(outputs) == 0 {
		return nil
	}
	delta := make(map[string]interface{}, len(outputs))
	for _, key := range outputs {
		ctx.Set(key, exprlang.Str(value))
		delta[key] = value
	}
	return delta
}
