// Package gate implements the Session-Start Gate: it decides whether
// classification should run at all for a turn, and when it does, it
// composes the Classifier and the Execution Tier Cascade into a single
// rich result.
//
// Modeled on a SessionStartDetector paired with a
// SessionStartClassifierSkill: the latter is the direct precedent for
// Process, the one place that wires the Classifier and the Cascade
// together.
package gate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/vinayprograms/recipeflow/internal/cascade"
	"github.com/vinayprograms/recipeflow/internal/classifier"
)

var log = logging.New().WithComponent("gate")

// BypassExplicitCommand and BypassFollowUp are the two reasons Process
// can report for skipping classification.
const (
	BypassExplicitCommand = "explicit_command"
	BypassFollowUp        = "follow_up_message"
)

// RequestContext is the session-turn context the gate and classifier
// read from: a loosely-typed context dict made explicit here since Go
// has no duck typing.
type RequestContext struct {
	Prompt            string
	SessionID         string
	IsFirstMessage    bool
	IsExplicitCommand bool
	Extra             map[string]interface{}
}

// effectivePrompt returns the request text, trimmed.
func (rc RequestContext) effectivePrompt() string {
	return strings.TrimSpace(rc.Prompt)
}

// Detector decides whether classification should run for a turn.
type Detector struct{}

// NewDetector constructs a Detector.
func NewDetector() *Detector { return &Detector{} }

// ShouldBypassClassification reports whether classification must be
// skipped: explicit commands, slash-prefixed prompts, and any message
// that is not the first in the session all bypass.
func (d *Detector) ShouldBypassClassification(rc RequestContext) bool {
	if rc.IsExplicitCommand {
		return true
	}
	if strings.HasPrefix(rc.effectivePrompt(), "/") {
		return true
	}
	if !rc.IsFirstMessage {
		return true
	}
	return false
}

// IsSessionStart reports whether this turn requires classification.
func (d *Detector) IsSessionStart(rc RequestContext) bool {
	if rc.IsExplicitCommand {
		return false
	}
	if strings.HasPrefix(rc.effectivePrompt(), "/") {
		return false
	}
	return rc.IsFirstMessage
}

// BypassReason returns the reason ShouldBypassClassification bypassed,
// checking in the same order: explicit command first, then follow-up
// message.
func (d *Detector) BypassReason(rc RequestContext) string {
	if rc.IsExplicitCommand || strings.HasPrefix(rc.effectivePrompt(), "/") {
		return BypassExplicitCommand
	}
	return BypassFollowUp
}

// Result is the outcome of one Process call.
type Result struct {
	Activated              bool
	Bypassed               bool
	Reason                 string
	SessionID              string
	CorrelationID          string
	Classification         *classifier.Classification
	Workflow               classifier.Workflow
	Announcement           string
	Execution              *cascade.ExecutionResult
	Tier                   int
	Method                 string
	Status                 string
	ExecutionError         string
	ClassificationTimeSecs float64
	Error                  string
	Context                map[string]interface{}
}

// Gate composes a Classifier, a Cascade, and a Detector into the single
// entry point a session turn calls.
type Gate struct {
	Classifier *classifier.Classifier
	Cascade    *cascade.Cascade
	Detector   *Detector
}

// New constructs a Gate from its three collaborators. Any of them may
// be nil-substitutable by the caller having already built sane
// defaults (classifier.New(nil), cascade.New(nil, nil, nil)).
func New(c *classifier.Classifier, ca *cascade.Cascade, d *Detector) *Gate {
	if d == nil {
		d = NewDetector()
	}
	return &Gate{Classifier: c, Cascade: ca, Detector: d}
}

// Process runs the full classify → execute → announce pipeline for one
// session turn, short-circuiting per the Session-Start Gate's bypass
// rules. It assigns a session ID (via uuid.New) when the caller leaves
// RequestContext.SessionID empty, and stamps a fresh correlation ID on
// every activated turn so its log lines can be grepped together.
func (g *Gate) Process(ctx context.Context, rc RequestContext) Result {
	start := time.Now()

	if g.Detector.ShouldBypassClassification(rc) {
		return Result{
			Activated: false,
			Bypassed:  true,
			Reason:    g.Detector.BypassReason(rc),
		}
	}

	if !g.Detector.IsSessionStart(rc) {
		return Result{Activated: false}
	}

	prompt := rc.effectivePrompt()
	if prompt == "" {
		log.Warn("no user request provided in context", nil)
		return Result{Activated: false}
	}

	classification, err := g.Classifier.Classify(prompt)
	if err != nil {
		log.Error("classification failed", map[string]interface{}{"error": err.Error()})
		return Result{Activated: false, Error: err.Error()}
	}

	if rc.SessionID == "" {
		rc.SessionID = uuid.New().String()
	}
	correlationID := uuid.New().String()
	log.Info("session turn classified", map[string]interface{}{
		"session_id":     rc.SessionID,
		"correlation_id": correlationID,
		"workflow":       string(classification.Workflow),
	})

	recipeRunnerAvailable := g.Cascade != nil && g.Cascade.IsRecipeRunnerAvailable()
	announcement := classifier.FormatAnnouncement(classification, recipeRunnerAvailable)

	result := Result{
		Activated:      true,
		Classification: &classification,
		Workflow:       classification.Workflow,
		Reason:         classification.Reason,
		Announcement:   announcement,
		SessionID:      rc.SessionID,
		CorrelationID:  correlationID,
	}

	// Q&A and OPS workflows bypass the Tier Cascade entirely: they are
	// handled directly (a direct answer, or a direct operational
	// action), never via a recipe.
	if classification.Workflow == classifier.WorkflowDefault || classification.Workflow == classifier.WorkflowInvestigation {
		userContext := map[string]interface{}{
			"session_id":     rc.SessionID,
			"correlation_id": correlationID,
			"prompt":         rc.Prompt,
		}
		for k, v := range rc.Extra {
			userContext[k] = v
		}
		execResult, execErr := g.Cascade.Execute(ctx, classification.Workflow, userContext)
		if execErr != nil {
			log.Error("workflow execution failed", map[string]interface{}{"error": execErr.Error()})
			result.ExecutionError = execErr.Error()
		} else {
			result.Execution = &execResult
			result.Tier = execResult.Tier
			result.Method = execResult.Method
			result.Status = execResult.Status
		}
	} else {
		result.Tier = cascade.TierNone
		result.Method = "direct"
		result.Status = "success"
	}

	result.ClassificationTimeSecs = time.Since(start).Seconds()

	augmented := map[string]interface{}{
		"classification":           classification,
		"workflow":                 string(classification.Workflow),
		"classification_time_secs": result.ClassificationTimeSecs,
		"tier":                     result.Tier,
		"method":                   result.Method,
		"status":                   result.Status,
	}
	result.Context = augmented

	return result
}
