package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"ragtune/internal/config"
	"ragtune/internal/question"
)

// runGenerate builds the handler for the generate command.
func runGenerate(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: search for .ragtune/config.yml)")
		outPath := fs.String("out", "questions.yml", "Where to write the question set")
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

		resolved, err := resolveConfigPath(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Generate failed: %v\n", err)
			return ExitError
		}
		cfg, err := config.Load(resolved)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid config:\n%v\n", err)
			return ExitError
		}
		baseDir := config.BaseDirFromConfigPath(resolved)

		segments, err := question.LoadSegments(resolveBasePath(baseDir, cfg.Document.SegmentsFile))
		if err != nil {
			fmt.Fprintf(stderr, "Generate failed: %v\n", err)
			return ExitError
		}

		client, err := newLLMClient(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Generate failed: %v\n", err)
			return ExitError
		}

		generator := &question.Generator{
			Client: client,
			OnSegmentError: func(segmentID string, err error) {
				fmt.Fprintf(stderr, "Warning: segment %s skipped: %v\n", segmentID, err)
			},
		}
		set, err := generator.Generate(context.Background(), segments, question.GenerateOptions{
			PerSegment:      cfg.Generation.QuestionsPerSegment,
			MaxSegments:     cfg.Generation.MaxSegments,
			MinSegmentChars: cfg.Document.MinSegmentChars,
			Temperature:     cfg.Generation.Temperature,
		})
		if err != nil {
			fmt.Fprintf(stderr, "Generate failed: %v\n", err)
			return ExitError
		}

		if err := question.SaveSet(*outPath, set); err != nil {
			fmt.Fprintf(stderr, "Generate failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Generated %d questions from %d of %d segments\n",
			set.Metadata.TotalQuestions, set.Metadata.SegmentsUsed, set.Metadata.SegmentsTotal)
		fmt.Fprintf(stdout, "Wrote %s\n", *outPath)
		return ExitOK
	}
}
