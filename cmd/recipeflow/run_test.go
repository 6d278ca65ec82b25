package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vinayprograms/recipeflow/internal/config"
)

func writeRecipe(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	return &Context{
		Ctx:    context.Background(),
		Config: config.New(),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	}
}

func TestRunCmd_SuccessfulRecipe(t *testing.T) {
	dir := t.TempDir()
	path := writeRecipe(t, dir, "demo.yaml", `
name: demo
steps:
  - id: greet
    kind: shell
    command_template: "echo hello"
    outputs: [greeting]
`)
	ctx := newTestContext(t)
	cmd := &RunCmd{Path: path, Format: "table"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	out := ctx.Stdout.(*bytes.Buffer).String()
	if out == "" {
		t.Error("expected non-empty stdout output")
	}
}

func TestRunCmd_FailingRecipeReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := writeRecipe(t, dir, "demo.yaml", `
name: demo
steps:
  - id: fails
    kind: shell
    command_template: "exit 1"
`)
	ctx := newTestContext(t)
	cmd := &RunCmd{Path: path, Format: "table"}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("expected an error for a recipe whose steps fail")
	}
}

func TestRunCmd_ResolvesBareNameUnderRecipeDir(t *testing.T) {
	dir := t.TempDir()
	writeRecipe(t, dir, "default-workflow.yaml", `
name: default-workflow
steps:
  - id: noop
    kind: shell
    command_template: "true"
`)
	ctx := newTestContext(t)
	cmd := &RunCmd{Path: "default-workflow", RecipeDir: dir, Format: "table"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestRunCmd_DryRunSkipsSideEffects(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	path := writeRecipe(t, dir, "demo.yaml", `
name: demo
steps:
  - id: touch
    kind: shell
    command_template: "touch `+marker+`"
`)
	ctx := newTestContext(t)
	cmd := &RunCmd{Path: path, DryRun: true, Format: "table"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, statErr := os.Stat(marker); statErr == nil {
		t.Error("dry-run must not have executed the shell step")
	}
}
