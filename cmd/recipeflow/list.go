package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vinayprograms/recipeflow/internal/recipe"
)

// recipeSummary is the per-file entry listed by `recipe list`.
type recipeSummary struct {
	Path string   `json:"path" yaml:"path"`
	Name string   `json:"name" yaml:"name"`
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func hasAllTags(have, want []string) bool {
	haveSet := make(map[string]bool, len(have))
	for _, t := range have {
		haveSet[t] = true
	}
	for _, t := range want {
		if !haveSet[t] {
			return false
		}
	}
	return true
}

// Run lists every valid recipe file under RecipeDir, optionally
// filtered by tag.
func (c *ListCmd) Run(ctx *Context) error {
	recipeDir := c.RecipeDir
	if recipeDir == "" {
		recipeDir = ctx.Config.Engine.RecipeDir
	}

	var summaries []recipeSummary
	err := filepath.WalkDir(recipeDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		rec, loadErr := recipe.Load(path)
		if loadErr != nil {
			fmt.Fprintf(ctx.Stderr, "warning: skipping %s: %v\n", path, loadErr)
			return nil
		}
		if !hasAllTags(rec.Tags, c.Tags) {
			return nil
		}
		summaries = append(summaries, recipeSummary{Path: path, Name: rec.Name, Tags: rec.Tags})
		return nil
	})
	if err != nil {
		return fmt.Errorf("listing recipes under %q: %w", recipeDir, err)
	}

	return writeFormatted(ctx.Stdout, c.Format, summaries, func(w io.Writer) error {
		for _, s := range summaries {
			fmt.Fprintf(w, "%s  %s\n", valueStyle.Render(s.Name), labelStyle.Render(s.Path))
		}
		return nil
	})
}
