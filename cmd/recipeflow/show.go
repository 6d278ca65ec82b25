package main

import (
	"fmt"
	"io"

	"github.com/vinayprograms/recipeflow/internal/recipe"
)

// Run prints a recipe's structure without executing it.
func (c *ShowCmd) Run(ctx *Context) error {
	rec, err := recipe.Load(c.Path)
	if err != nil {
		return fmt.Errorf("loading recipe: %w", err)
	}

	return writeFormatted(ctx.Stdout, c.Format, rec, func(w io.Writer) error {
		return renderRecipeTable(w, rec, c.Steps, c.Context)
	})
}

func renderRecipeTable(w io.Writer, rec *recipe.Recipe, showSteps, showContext bool) error {
	row(w, "name", rec.Name)
	if rec.Version != "" {
		row(w, "version", rec.Version)
	}
	if len(rec.Tags) > 0 {
		row(w, "tags", fmt.Sprint(rec.Tags))
	}
	row(w, "steps", fmt.Sprint(len(rec.Steps)))

	if showContext && len(rec.ContextDefaults) > 0 {
		fmt.Fprintln(w, labelStyle.Render("context defaults:"))
		for k, v := range rec.ContextDefaults {
			fmt.Fprintf(w, "  %s = %v\n", k, v)
		}
	}

	if showSteps {
		fmt.Fprintln(w, labelStyle.Render("steps:"))
		renderSteps(w, rec.Steps, 1)
	}

	return nil
}

func renderSteps(w io.Writer, steps []recipe.Step, depth int) {
	prefix := ""
	for i := 0; i < depth; i++ {
		prefix += "  "
	}
	for _, s := range steps {
		fmt.Fprintf(w, "%s%s [%s]\n", prefix, s.ID, s.Kind)
		if len(s.Then) > 0 {
			renderSteps(w, s.Then, depth+1)
		}
	}
}
