// Command recipeflow is the CLI front-end for the recipe engine: run,
// list, validate, and show recipe files.
//
// Struct-tag command definitions follow cmd/agent/cli.go's style
// (short flags, defaults, help text, positional args), dispatched via
// kong with one Run(ctx) method per subcommand.
package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// CLI is the top-level command-line interface.
type CLI struct {
	Run      RunCmd      `cmd:"" help:"Run a recipe"`
	List     ListCmd     `cmd:"" help:"List recipes in a directory"`
	Validate ValidateCmd `cmd:"" help:"Validate recipe syntax"`
	Show     ShowCmd     `cmd:"" help:"Show recipe structure"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// RunCmd executes a recipe against an optional context.
type RunCmd struct {
	Path       string            `arg:"" help:"Recipe file path, or a bare name resolved under --recipe-dir"`
	Context    map[string]string `short:"c" help:"Context key=value (repeatable)"`
	DryRun     bool              `help:"Evaluate guards and dispatch without side effects"`
	Verbose    bool              `short:"v" help:"Print each step as it runs"`
	Format     string            `default:"table" enum:"table,json,yaml" help:"Output format"`
	RecipeDir  string            `help:"Directory bare recipe names are resolved against"`
	WorkingDir string            `help:"Working directory for shell steps"`
}

// ListCmd lists recipes found under a directory.
type ListCmd struct {
	RecipeDir string   `short:"d" help:"Directory to search for recipe files"`
	Tags      []string `short:"t" help:"Only list recipes carrying all of these tags (repeatable)"`
	Format    string   `default:"table" enum:"table,json,yaml" help:"Output format"`
}

// ValidateCmd validates a recipe file's syntax and invariants.
type ValidateCmd struct {
	Path    string `arg:"" help:"Recipe file path"`
	Verbose bool   `short:"v" help:"Print the full error detail on failure"`
}

// ShowCmd prints a recipe's structure without running it.
type ShowCmd struct {
	Path    string `arg:"" help:"Recipe file path"`
	Steps   bool   `help:"Include step detail"`
	Context bool   `help:"Include context defaults"`
	Format  string `default:"table" enum:"table,json,yaml" help:"Output format"`
}

// VersionCmd prints build version information.
type VersionCmd struct{}

// Run prints the CLI's version information.
func (c *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintf(ctx.Stdout, "recipeflow version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}

func kongVars() kong.Vars {
	return kong.Vars{"version": version}
}
