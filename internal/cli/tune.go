package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ragtune/internal/config"
	"ragtune/internal/llm"
	"ragtune/internal/loop"
	"ragtune/internal/pipeline"
	"ragtune/internal/question"
	"ragtune/internal/ratelimit"
	"ragtune/internal/runner"
	"ragtune/internal/spec"
	"ragtune/internal/ui/live"
	"ragtune/internal/vcs"
)

// runLoop is a test seam for driving the tuning controller.
var runLoop = func(ctx context.Context, cfg spec.Config, inputs loop.Inputs, deps loop.Dependencies) (*loop.RunResult, runner.OutputPaths, error) {
	controller := loop.New(cfg, inputs, deps)
	result, err := controller.Run(ctx)
	return result, controller.Paths(), err
}

// newLLMClient is a test seam for constructing the judge/generator client.
var newLLMClient = func(cfg spec.Config) (llm.Client, error) {
	return llm.FromEnv(cfg.LLM.Provider, cfg.LLM.Model, nil)
}

// runTune builds the handler for the tune command.
func runTune(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: search for .ragtune/config.yml)")
		questionsPath := fs.String("questions", "", "Reuse an existing question set instead of generating one")
		iterations := fs.Int("iterations", 0, "Override tuning.iterations")
		threshold := fs.Float64("threshold", 0, "Override tuning.convergence_threshold")
		apply := fs.Bool("apply", true, "Apply suggested parameter changes between iterations")
		outputDir := fs.String("output-dir", "", "Override the output directory")
		workers := fs.Int("workers", 0, "Override execution.workers")
		model := fs.String("model", "", "Override llm.model")
		verbose := fs.Bool("verbose", false, "Log per-question execution detail")
		logPath := fs.String("log", "", "Append the per-question log to a file")
		noColor := fs.Bool("no-color", false, "Disable ANSI colors")
		uiMode := fs.String("ui", "auto", "Progress UI: auto, live or plain")
		if err := fs.Parse(args); err != nil {
			if err == flag.ErrHelp {
				printCommandUsage(cmd, stdout)
				return ExitOK
			}
			return ExitUsage
		}
		if fs.NArg() > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		decision, err := resolveUIMode(*uiMode, *verbose, stdout)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitUsage
		}

		resolved, err := resolveConfigPath(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Tune failed: %v\n", err)
			return ExitError
		}
		cfg, err := config.Load(resolved)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid config:\n%v\n", err)
			return ExitError
		}
		baseDir := config.BaseDirFromConfigPath(resolved)

		applySet := false
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "apply" {
				applySet = true
			}
		})
		if *iterations > 0 {
			cfg.Tuning.Iterations = *iterations
		}
		if *threshold > 0 {
			cfg.Tuning.ConvergenceThreshold = *threshold
		}
		if applySet {
			cfg.Tuning.ApplyImprovements = *apply
		}
		if *workers > 0 {
			cfg.Execution.Workers = *workers
		}
		if strings.TrimSpace(*model) != "" {
			cfg.LLM.Model = *model
		}
		// The output dir from a flag is caller-relative; from the config it
		// is project-relative.
		if strings.TrimSpace(*outputDir) != "" {
			abs, err := filepath.Abs(*outputDir)
			if err != nil {
				fmt.Fprintf(stderr, "Tune failed: %v\n", err)
				return ExitError
			}
			cfg.OutputDir = abs
		} else if !filepath.IsAbs(cfg.OutputDir) {
			cfg.OutputDir = filepath.Join(baseDir, cfg.OutputDir)
		}

		inputs := loop.Inputs{Document: cfg.Document.SegmentsFile}
		if strings.TrimSpace(*questionsPath) != "" {
			set, err := question.LoadSet(*questionsPath)
			if err != nil {
				fmt.Fprintf(stderr, "Tune failed: %v\n", err)
				return ExitError
			}
			inputs.Questions = set
		} else {
			segments, err := question.LoadSegments(resolveBasePath(baseDir, cfg.Document.SegmentsFile))
			if err != nil {
				fmt.Fprintf(stderr, "Tune failed: %v\n", err)
				return ExitError
			}
			inputs.Segments = segments
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if repo, err := vcs.Discover(ctx, baseDir); err == nil {
			if meta, err := repo.Metadata(ctx); err == nil {
				inputs.Repo = loop.RepoInfoFromMetadata(meta)
			}
		}

		client, err := newLLMClient(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Tune failed: %v\n", err)
			return ExitError
		}
		pipe, err := pipeline.NewHTTPClient(cfg.Pipeline.AnswerURL, nil)
		if err != nil {
			fmt.Fprintf(stderr, "Tune failed: %v\n", err)
			return ExitError
		}
		limiter, err := ratelimit.BuildLimiter(cfg, baseDir)
		if err != nil {
			fmt.Fprintf(stderr, "Tune failed: %v\n", err)
			return ExitError
		}

		deps := loop.Dependencies{
			Pipeline: pipe,
			Client:   client,
			Limiter:  limiter,
			NoColor:  resolveNoColor(*noColor),
		}
		if *verbose {
			deps.Verbose = true
			deps.VerboseWriter = stdout
		}
		if strings.TrimSpace(*logPath) != "" {
			logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				fmt.Fprintf(stderr, "Tune failed: open log file: %v\n", err)
				return ExitError
			}
			defer logFile.Close()
			deps.Verbose = true
			deps.VerboseLogWriter = logFile
		}

		if decision.warning != "" {
			fmt.Fprintln(stderr, decision.warning)
		}
		var liveUI *live.Controller
		if decision.useLive {
			liveUI = live.Start(stdout, live.Options{NoColor: deps.NoColor})
			deps.Observer = liveUI
		} else {
			deps.Observer = newPlainProgress(stdout)
		}

		result, paths, runErr := runLoop(ctx, cfg, inputs, deps)
		if liveUI != nil {
			liveUI.Close()
			liveUI.Wait()
		}
		stop()

		if result == nil {
			fmt.Fprintf(stderr, "Tune failed: %v\n", runErr)
			return ExitError
		}
		if result.Interrupted {
			fmt.Fprintf(stderr, "Tuning interrupted; %d completed iteration(s) preserved in %s\n",
				len(result.Iterations), paths.RunDir())
			return ExitError
		}
		if runErr != nil {
			fmt.Fprintf(stderr, "Tune failed: %v\n", runErr)
			return ExitError
		}

		fmt.Fprintln(stdout, loop.FormatFinalReport(result))
		fmt.Fprintf(stdout, "Run %s completed\n", result.RunID)
		fmt.Fprintf(stdout, "Results: %s\n", paths.ResultPath())
		fmt.Fprintf(stdout, "Report: %s\n", paths.ReportPath())
		return ExitOK
	}
}
