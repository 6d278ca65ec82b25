package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vinayprograms/recipeflow/internal/agentref"
	"github.com/vinayprograms/recipeflow/internal/recipe"
)

// resolveRecipePath finds the recipe file for path: a direct path if it
// exists, else "<recipeDir>/<path>.yaml" and "<recipeDir>/<path>.yml".
func resolveRecipePath(path, recipeDir string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	for _, ext := range []string{".yaml", ".yml"} {
		candidate := filepath.Join(recipeDir, path+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no recipe found for %q under %q", path, recipeDir)
}

// parseContextValues converts CLI key=value strings into a
// recipe-ready context map, attempting int/float/bool coercion before
// falling back to a raw string, matching how YAML-sourced context
// values would already be typed.
func parseContextValues(kv map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(kv))
	for k, v := range kv {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = i
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = f
			continue
		}
		if b, err := strconv.ParseBool(v); err == nil {
			out[k] = b
			continue
		}
		out[k] = v
	}
	return out
}

// Run executes the recipe.
func (c *RunCmd) Run(ctx *Context) error {
	recipeDir := c.RecipeDir
	if recipeDir == "" {
		recipeDir = ctx.Config.Engine.RecipeDir
	}

	path, err := resolveRecipePath(c.Path, recipeDir)
	if err != nil {
		return err
	}
	rec, err := recipe.Load(path)
	if err != nil {
		return fmt.Errorf("loading recipe: %w", err)
	}

	searchRoots := ctx.Config.Engine.AgentSearchRoots
	runner := &recipe.Runner{Resolver: agentref.New(searchRoots)}

	workingDir := c.WorkingDir
	if workingDir == "" {
		workingDir, _ = os.Getwd()
	}

	opts := recipe.Options{
		DryRun:         c.DryRun,
		WorkingDir:     workingDir,
		Verbose:        c.Verbose,
		DefaultTimeout: ctx.Config.DefaultTimeout(),
		Grace:          ctx.Config.Grace(),
	}

	result := runner.Run(ctx.Ctx, rec, parseContextValues(c.Context), opts)

	if err := writeFormatted(ctx.Stdout, c.Format, result, func(w io.Writer) error {
		return renderRunResultTable(w, result, c.Verbose)
	}); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("recipe %q failed", rec.Name)
	}
	return nil
}

func renderRunResultTable(w io.Writer, result recipe.RecipeResult, verbose bool) error {
	fmt.Fprintf(w, "%s\n", labelStyle.Render(fmt.Sprintf("recipe: %s", result.RecipeName)))
	row(w, "status", statusStyled(result.Success))
	fmt.Fprintln(w)
	for _, sr := range result.StepResults {
		state := "ran"
		if sr.Skipped {
			state = "skipped"
		}
		fmt.Fprintf(w, "  %s [%s] %s\n", sr.StepID, state, statusStyled(sr.Success || sr.Skipped))
		if verbose && sr.Stdout != "" {
			fmt.Fprintln(w, indent(wrapDiagnostic(sr.Stdout), 4))
		}
		if sr.Err != nil {
			fmt.Fprintln(w, indent(errorStyle.Render(wrapDiagnostic(sr.Err.Error())), 4))
		}
	}
	return nil
}
