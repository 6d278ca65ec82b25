package classifier

import "testing"

func TestClassify_RejectsEmptyRequest(t *testing.T) {
	c := New(nil)
	if _, err := c.Classify("   "); err == nil {
		t.Fatal("expected error for empty/whitespace-only request")
	}
}

func TestClassify_NoKeywordMatchDefaultsLowConfidence(t *testing.T) {
	c := New(nil)
	result, err := c.Classify("something entirely unrelated to any keyword")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Workflow != WorkflowDefault {
		t.Errorf("workflow = %v, want DEFAULT_WORKFLOW", result.Workflow)
	}
	if result.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", result.Confidence)
	}
}

func TestClassify_PriorityDefaultOverOps(t *testing.T) {
	c := New(nil)
	result, err := c.Classify("please implement a cleanup for the logs")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Workflow != WorkflowDefault {
		t.Errorf("workflow = %v, want DEFAULT_WORKFLOW (DEFAULT outranks OPS)", result.Workflow)
	}
	if result.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", result.Confidence)
	}
}

func TestClassify_PriorityInvestigationOverOps(t *testing.T) {
	c := New(nil)
	result, err := c.Classify("investigate and organize the test failures")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Workflow != WorkflowInvestigation {
		t.Errorf("workflow = %v, want INVESTIGATION_WORKFLOW", result.Workflow)
	}
}

func TestClassify_OpsOverQA(t *testing.T) {
	c := New(nil)
	result, err := c.Classify("what is the best way to run command cleanup?")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Workflow != WorkflowOps {
		t.Errorf("workflow = %v, want OPS_WORKFLOW (OPS outranks Q&A)", result.Workflow)
	}
}

func TestClassify_QAOnly(t *testing.T) {
	c := New(nil)
	result, err := c.Classify("what is the capital of France")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Workflow != WorkflowQA {
		t.Errorf("workflow = %v, want Q&A_WORKFLOW", result.Workflow)
	}
}

func TestNew_CustomKeywordsExtendDefaults(t *testing.T) {
	c := New(map[Workflow][]string{WorkflowOps: {"reboot the box"}})
	result, err := c.Classify("please reboot the box now")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Workflow != WorkflowOps {
		t.Errorf("workflow = %v, want OPS_WORKFLOW via custom keyword", result.Workflow)
	}
}

func TestFormatAnnouncement_IncludesRecipeRunnerLineWhenEligible(t *testing.T) {
	c := Classification{Workflow: WorkflowDefault, Reason: "keyword 'implement'", Confidence: 0.9}
	out := FormatAnnouncement(c, true)
	want := "WORKFLOW: DEFAULT\nReason: keyword 'implement'\nFollowing: .claude/workflow/DEFAULT_WORKFLOW.md\nExecution: Recipe Runner (tier 1) - default-workflow"
	if out != want {
		t.Errorf("FormatAnnouncement =\n%q\nwant\n%q", out, want)
	}
}

func TestFormatAnnouncement_OmitsRecipeRunnerLineForQA(t *testing.T) {
	c := Classification{Workflow: WorkflowQA, Reason: "keyword 'what is'", Confidence: 0.9}
	out := FormatAnnouncement(c, true)
	if contains := "Execution:"; len(out) >= len(contains) && stringsContains(out, contains) {
		t.Errorf("Q&A workflow should never show a Recipe Runner execution line, got %q", out)
	}
}

func stringsContains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
