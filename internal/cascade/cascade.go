// Package cascade implements the Execution Tier Cascade: given a
// classified workflow, attempt execution at the highest available tier
// (code-enforced Recipe Runner, LLM-driven Workflow Skill, markdown
// fallback), falling back strictly in priority order and recording why.
//
// Modeled on an ExecutionTierCascade collaborator of the same name.
package cascade

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayprograms/agentkit/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vinayprograms/recipeflow/internal/classifier"
	"github.com/vinayprograms/recipeflow/internal/config"
)

var log = logging.New().WithComponent("cascade")

var tracer = otel.Tracer("recipeflow")

// startTierSpan starts a span for one tier attempt, following a
// start/end span helper-pair convention shared across one attempt.
func startTierSpan(ctx context.Context, name string, workflow classifier.Workflow) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(attribute.String("cascade.workflow", string(workflow)))
	return ctx, span
}

// endTierSpan ends a tier span, recording err if non-nil.
func endTierSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// TierNone is returned in ExecutionResult.Tier for a workflow that has no
// applicable tier (Q&A/OPS, handled directly by the Session-Start Gate
// without ever calling Execute).
const TierNone = 0

// WorkflowRecipeMap maps a workflow to its backing recipe name. Q&A and
// OPS map to "" — they have no recipe and Tier 1 is not applicable.
var WorkflowRecipeMap = map[classifier.Workflow]string{
	classifier.WorkflowDefault:       "default-workflow",
	classifier.WorkflowInvestigation: "investigation-workflow",
	classifier.WorkflowQA:            "",
	classifier.WorkflowOps:           "",
}

// RecipeRunner is Tier 1: a code-enforced recipe execution engine.
// Satisfied by an adapter around *recipe.Runner; declared here so this
// package does not need to import internal/recipe directly.
type RecipeRunner interface {
	RunByName(recipeName string, userContext map[string]interface{}) error
}

// WorkflowSkill is Tier 2: an LLM-driven execution strategy that hands
// the recipe file to a model as a prompt. Reserved for a future
// implementation — see Open Question 2 in DESIGN.md: IsWorkflowSkillsAvailable
// always returns false unless an instance is explicitly injected here.
type WorkflowSkill interface {
	Execute(workflow string, userContext map[string]interface{}) error
}

// ExecutionResult is the outcome of one Execute call.
type ExecutionResult struct {
	Tier              int
	Method            string
	Status            string
	Workflow          string
	Recipe            string
	ExecutionTimeSecs float64
	FallbackCount     int
	FallbackReason    string
	Context           map[string]interface{}
}

// Cascade manages workflow execution across the three tiers with
// sequential, ordered fallback.
type Cascade struct {
	recipeRunner  RecipeRunner
	workflowSkill WorkflowSkill
	tierPriority  []int
}

// New constructs a Cascade. recipeRunner and workflowSkill may be nil —
// the corresponding tier is then simply unavailable. tierPriority
// defaults to [1, 2, 3] when nil.
func New(recipeRunner RecipeRunner, workflowSkill WorkflowSkill, tierPriority []int) *Cascade {
	if tierPriority == nil {
		tierPriority = []int{1, 2, 3}
	}
	return &Cascade{recipeRunner: recipeRunner, workflowSkill: workflowSkill, tierPriority: tierPriority}
}

// DetectAvailableTier reports the highest-priority tier that is
// currently available, without executing anything.
func (c *Cascade) DetectAvailableTier() int {
	for _, tier := range c.tierPriority {
		switch tier {
		case 1:
			if c.IsRecipeRunnerAvailable() {
				return 1
			}
		case 2:
			if c.IsWorkflowSkillsAvailable() {
				return 2
			}
		case 3:
			return 3
		}
	}
	return 3
}

// IsRecipeRunnerAvailable reports whether Tier 1 can be used: the
// RECIPEFLOW_USE_TIER1 gate must not be disabled, and a runner instance
// must be injected.
func (c *Cascade) IsRecipeRunnerAvailable() bool {
	if !config.Tier1Enabled() {
		return false
	}
	return c.recipeRunner != nil
}

// IsWorkflowSkillsAvailable reports whether Tier 2 can be used. Per the
// resolved Open Question, this is true only when a WorkflowSkill was
// explicitly injected into New — there is no default implementation.
func (c *Cascade) IsWorkflowSkillsAvailable() bool {
	return c.workflowSkill != nil
}

// IsMarkdownAvailable reports whether Tier 3 can be used. Always true:
// it is the fallback of last resort.
func (c *Cascade) IsMarkdownAvailable() bool {
	return true
}

// WorkflowToRecipeName maps workflow to its recipe name, or "" if the
// workflow has no recipe (Q&A, OPS).
func (c *Cascade) WorkflowToRecipeName(workflow classifier.Workflow) string {
	return WorkflowRecipeMap[workflow]
}

// Execute attempts workflow at Tier 1, then Tier 2, then Tier 3, skipping
// unavailable tiers and falling back to the next one on failure. This
// order is fixed: the tierPriority passed to New is consulted only by
// DetectAvailableTier, not by Execute. Tier 3 is guaranteed to succeed;
// if it nonetheless fails, that error is fatal and propagated as-is.
func (c *Cascade) Execute(ctx context.Context, workflow classifier.Workflow, userContext map[string]interface{}) (ExecutionResult, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "cascade.execute")
	span.SetAttributes(attribute.String("cascade.workflow", string(workflow)))
	defer span.End()

	if _, ok := WorkflowRecipeMap[workflow]; !ok {
		err := fmt.Errorf("invalid workflow: %s", workflow)
		span.RecordError(err)
		return ExecutionResult{}, err
	}
	if userContext == nil {
		userContext = map[string]interface{}{}
	}

	fallbackCount := 0
	var lastErr string

	if c.IsRecipeRunnerAvailable() {
		res, err := c.executeTier1(ctx, workflow, userContext)
		if err == nil {
			res.ExecutionTimeSecs = time.Since(start).Seconds()
			res.FallbackCount = fallbackCount
			log.Info("workflow executed via tier 1 (recipe_runner)", map[string]interface{}{"workflow": string(workflow)})
			span.SetAttributes(attribute.Int("cascade.tier", 1))
			return res, nil
		}
		log.Warn("tier 1 (recipe runner) failed, attempting fallback", map[string]interface{}{"error": err.Error()})
		lastErr = err.Error()
		fallbackCount++
	}

	if c.IsWorkflowSkillsAvailable() {
		res, err := c.executeTier2(ctx, workflow, userContext)
		if err == nil {
			res.ExecutionTimeSecs = time.Since(start).Seconds()
			res.FallbackCount = fallbackCount
			if fallbackCount > 0 {
				res.FallbackReason = fmt.Sprintf("Tier 1 failed: %s", lastErr)
			}
			log.Info("workflow executed via tier 2 (workflow_skills)", map[string]interface{}{"workflow": string(workflow), "fallback_count": fallbackCount})
			span.SetAttributes(attribute.Int("cascade.tier", 2))
			return res, nil
		}
		log.Warn("tier 2 (workflow skills) failed, attempting fallback", map[string]interface{}{"error": err.Error()})
		lastErr = err.Error()
		fallbackCount++
	}

	res, err := c.executeTier3(workflow, userContext)
	if err != nil {
		span.RecordError(err)
		log.Error("all tiers failed, including tier 3 (markdown)", map[string]interface{}{"error": err.Error()})
		return ExecutionResult{}, fmt.Errorf("all tiers failed, including tier 3 (markdown): %w", err)
	}
	res.ExecutionTimeSecs = time.Since(start).Seconds()
	res.FallbackCount = fallbackCount
	if fallbackCount > 0 {
		res.FallbackReason = fmt.Sprintf("previous tiers failed: %s", lastErr)
		log.Info("workflow executed via tier 3 (markdown) after fallback", map[string]interface{}{"workflow": string(workflow), "fallback_count": fallbackCount})
	} else {
		log.Info("workflow executed via tier 3 (markdown)", map[string]interface{}{"workflow": string(workflow)})
	}
	span.SetAttributes(attribute.Int("cascade.tier", 3))
	return res, nil
}

func (c *Cascade) executeTier1(ctx context.Context, workflow classifier.Workflow, userContext map[string]interface{}) (ExecutionResult, error) {
	_, span := startTierSpan(ctx, "cascade.tier1", workflow)
	var err error
	defer func() { endTierSpan(span, err) }()

	recipeName := c.WorkflowToRecipeName(workflow)
	if recipeName == "" {
		err = fmt.Errorf("%s does not have a recipe", workflow)
		return ExecutionResult{}, err
	}
	if c.recipeRunner == nil {
		err = fmt.Errorf("recipe runner not available")
		return ExecutionResult{}, err
	}
	if err = c.recipeRunner.RunByName(recipeName, userContext); err != nil {
		return ExecutionResult{}, err
	}
	return ExecutionResult{
		Tier:     1,
		Method:   "recipe_runner",
		Status:   "success",
		Workflow: string(workflow),
		Recipe:   recipeName,
	}, nil
}

func (c *Cascade) executeTier2(ctx context.Context, workflow classifier.Workflow, userContext map[string]interface{}) (ExecutionResult, error) {
	_, span := startTierSpan(ctx, "cascade.tier2", workflow)
	var err error
	defer func() { endTierSpan(span, err) }()

	if c.workflowSkill == nil {
		err = fmt.Errorf("workflow skills not available")
		return ExecutionResult{}, err
	}
	if err = c.workflowSkill.Execute(string(workflow), userContext); err != nil {
		return ExecutionResult{}, err
	}
	return ExecutionResult{
		Tier:     2,
		Method:   "workflow_skills",
		Status:   "success",
		Workflow: string(workflow),
	}, nil
}

// executeTier3 is the fallback that always succeeds: it signals to the
// caller that the workflow's markdown description should be read
// directly, without any code-enforced execution.
func (c *Cascade) executeTier3(workflow classifier.Workflow, userContext map[string]interface{}) (ExecutionResult, error) {
	return ExecutionResult{
		Tier:     3,
		Method:   "markdown",
		Status:   "success",
		Workflow: string(workflow),
		Context:  userContext,
	}, nil
}
