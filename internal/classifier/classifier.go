// Package classifier routes an incoming request to one of four
// workflows by keyword matching. Grounded directly on the reference
// WorkflowClassifier: same keyword groups, same DEFAULT > INVESTIGATION
// > OPS > Q&A priority order, same confidence values.
package classifier

import (
	"fmt"
	"strings"
)

// Workflow is one of the four routing targets a request can classify to.
type Workflow string

const (
	WorkflowQA            Workflow = "Q&A_WORKFLOW"
	WorkflowOps           Workflow = "OPS_WORKFLOW"
	WorkflowInvestigation Workflow = "INVESTIGATION_WORKFLOW"
	WorkflowDefault       Workflow = "DEFAULT_WORKFLOW"
)

// priority is evaluated first-match-wins: DEFAULT outranks
// INVESTIGATION outranks OPS outranks Q&A, so development tasks take
// precedence over superficially ambiguous phrasing.
var priority = []Workflow{WorkflowDefault, WorkflowInvestigation, WorkflowOps, WorkflowQA}

// DefaultKeywordMap is the built-in keyword set per workflow.
var DefaultKeywordMap = map[Workflow][]string{
	WorkflowQA: {
		"what is",
		"explain briefly",
		"quick question",
		"how do i run",
		"what does",
		"can you explain",
	},
	WorkflowOps: {
		"run command",
		"disk cleanup",
		"repo management",
		"git operations",
		"delete files",
		"cleanup",
		"organize",
		"clean up",
		"manage",
	},
	WorkflowInvestigation: {
		"investigate",
		"understand",
		"analyze",
		"research",
		"explore",
		"how does",
		"how it works",
	},
	WorkflowDefault: {
		"implement",
		"add",
		"fix",
		"create",
		"refactor",
		"update",
		"build",
		"develop",
		"remove",
		"delete",
		"modify",
	},
}

// Classification is the result of classifying one request.
type Classification struct {
	Workflow   Workflow
	Reason     string
	Confidence float64
	Keywords   []string
}

// Classifier classifies requests into a Workflow by keyword matching.
type Classifier struct {
	keywords map[Workflow][]string
}

// New creates a Classifier seeded from DefaultKeywordMap, optionally
// extended or overridden by custom.
func New(custom map[Workflow][]string) *Classifier {
	merged := make(map[Workflow][]string, len(DefaultKeywordMap))
	for wf, kws := range DefaultKeywordMap {
		cp := make([]string, len(kws))
		copy(cp, kws)
		merged[wf] = cp
	}
	for wf, kws := range custom {
		merged[wf] = append(merged[wf], kws...)
	}
	return &Classifier{keywords: merged}
}

// Classify classifies request into a Workflow. request must be
// non-empty after trimming.
func (c *Classifier) Classify(request string) (Classification, error) {
	if strings.TrimSpace(request) == "" {
		return Classification{}, fmt.Errorf("request cannot be empty")
	}

	keywords := c.extractKeywords(request)
	workflow, reason, confidence := c.classifyByKeywords(keywords)

	return Classification{
		Workflow:   workflow,
		Reason:     reason,
		Confidence: confidence,
		Keywords:   keywords,
	}, nil
}

func (c *Classifier) extractKeywords(request string) []string {
	lower := strings.ToLower(request)
	var matched []string
	for _, workflow := range priority {
		for _, kw := range c.keywords[workflow] {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
	}
	return matched
}

func (c *Classifier) classifyByKeywords(keywords []string) (Workflow, string, float64) {
	for _, workflow := range priority {
		workflowKeywords := c.keywords[workflow]
		for _, kw := range keywords {
			if containsString(workflowKeywords, kw) {
				return workflow, fmt.Sprintf("keyword '%s'", kw), 0.9
			}
		}
	}
	return WorkflowDefault, "ambiguous request, defaulting to default workflow", 0.5
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// FormatAnnouncement renders the user-facing classification banner,
// optionally noting Recipe Runner (tier 1) availability for the two
// workflows that have a backing recipe.
func FormatAnnouncement(c Classification, recipeRunnerAvailable bool) string {
	displayName := strings.TrimSuffix(string(c.Workflow), "_WORKFLOW")

	announcement := fmt.Sprintf("WORKFLOW: %s\nReason: %s\nFollowing: .claude/workflow/%s.md",
		displayName, c.Reason, c.Workflow)

	if recipeRunnerAvailable && (c.Workflow == WorkflowDefault || c.Workflow == WorkflowInvestigation) {
		recipeName := strings.ToLower(strings.ReplaceAll(string(c.Workflow), "_", "-"))
		announcement += fmt.Sprintf("\nExecution: Recipe Runner (tier 1) - %s", recipeName)
	}

	return announcement
}
