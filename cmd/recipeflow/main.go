package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/vinayprograms/recipeflow/internal/config"
)

// Build-time variables, set via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Context carries the CLI's shared collaborators into every
// subcommand's Run method: the loaded engine config, the process-wide
// cancellation context (cancelled on SIGINT/SIGTERM), and the output
// streams.
type Context struct {
	Ctx    context.Context
	Config *config.Config
	Stdout io.Writer
	Stderr io.Writer
}

func init() {
	_ = godotenv.Load()
}

func main() {
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	parser, err := kong.New(&cli, kongVars(), kong.Name("recipeflow"),
		kong.Description("Run, list, validate, and show recipe files."))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.Errorf("%v", err)
		os.Exit(2)
	}

	runCtx := &Context{Ctx: ctx, Config: cfg, Stdout: os.Stdout, Stderr: os.Stderr}

	err = kctx.Run(runCtx)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "interrupted")
		os.Exit(130)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
