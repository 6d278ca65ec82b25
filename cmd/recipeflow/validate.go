package main

import (
	"fmt"

	"github.com/vinayprograms/recipeflow/internal/recipe"
)

// Run validates a recipe file's syntax and schema invariants without
// executing it.
func (c *ValidateCmd) Run(ctx *Context) error {
	rec, err := recipe.Load(c.Path)
	if err != nil {
		if c.Verbose {
			fmt.Fprintln(ctx.Stderr, errorStyle.Render(wrapDiagnostic(err.Error())))
		}
		return fmt.Errorf("recipe %q is invalid: %w", c.Path, err)
	}
	fmt.Fprintf(ctx.Stdout, "%s %s (%d step(s))\n", successStyle.Render("valid:"), rec.Name, len(rec.Steps))
	return nil
}
