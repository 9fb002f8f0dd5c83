package loop

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"ragtune/internal/advisor"
	"ragtune/internal/eval"
	"ragtune/internal/llm"
	"ragtune/internal/pipeline"
	"ragtune/internal/question"
	"ragtune/internal/runner"
	"ragtune/internal/spec"
	"ragtune/pkg/ratelimiter"
)

// Stage functions. Nil fields in Dependencies get the real implementations;
// tests substitute scripted ones.
type (
	GenerateFunc func(ctx context.Context, segments []question.Segment) (question.Set, error)
	ExecuteFunc  func(ctx context.Context, iteration int, questions []question.Question, params pipeline.Params) ([]runner.AnswerRecord, runner.BatchStats, error)
	ScoreFunc    func(ctx context.Context, iteration int, questions []question.Question, records []runner.AnswerRecord) ([]eval.ScoreRecord, error)
	AdviseFunc   func(ctx context.Context, scores []eval.ScoreRecord, records []runner.AnswerRecord, params pipeline.Params) (*advisor.Advisory, error)
)

// Inputs carries the data a run starts from. A non-empty Questions set is
// reused as-is; otherwise questions are generated from Segments.
type Inputs struct {
	Questions question.Set
	Segments  []question.Segment
	Document  string
	Repo      *RepoInfo
}

type Dependencies struct {
	Pipeline pipeline.Pipeline
	Client   llm.Client
	Limiter  ratelimiter.Limiter
	Observer RunObserver
	Now      func() time.Time
	NewRunID func() (string, error)

	// Per-question progress logging, forwarded to the batch executor.
	Verbose          bool
	VerboseWriter    io.Writer
	VerboseLogWriter io.Writer
	NoColor          bool

	Generate GenerateFunc
	Execute  ExecuteFunc
	Score    ScoreFunc
	Advise   AdviseFunc
}

// Controller drives the execute-score-advise-apply loop until the composite
// score converges or the iteration budget is exhausted.
type Controller struct {
	cfg    spec.Config
	inputs Inputs
	deps   Dependencies
	emit   runEmitter
	paths  runner.OutputPaths
	state  State
}

// New wires a controller, filling nil dependencies with defaults. The config
// is expected normalized (see internal/config.Normalize).
func New(cfg spec.Config, inputs Inputs, deps Dependencies) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewRunID == nil {
		deps.NewRunID = runner.NewRunID
	}
	c := &Controller{
		cfg:    cfg,
		inputs: inputs,
		deps:   deps,
		emit:   runEmitter{observer: deps.Observer},
		state:  StateIdle,
	}
	if c.deps.Generate == nil {
		c.deps.Generate = c.generateQuestions
	}
	if c.deps.Execute == nil {
		c.deps.Execute = c.executeBatch
	}
	if c.deps.Score == nil {
		c.deps.Score = c.scoreBatch
	}
	if c.deps.Advise == nil {
		c.deps.Advise = c.adviseBatch
	}
	return c
}

// Run executes the tuning loop. Cancellation keeps every artifact produced so
// far: the result records the interruption, result.json and report.txt are
// still written, and the context error is returned alongside the result.
func (c *Controller) Run(ctx context.Context) (*RunResult, error) {
	if c.cfg.Tuning.Iterations < 1 {
		return nil, fmt.Errorf("tuning.iterations must be at least 1, got %d", c.cfg.Tuning.Iterations)
	}

	runID, err := c.deps.NewRunID()
	if err != nil {
		return nil, fmt.Errorf("mint run ID: %w", err)
	}
	paths, err := runner.NewOutputPaths(c.cfg.OutputDir, runID)
	if err != nil {
		return nil, err
	}
	c.paths = paths

	startedAt := c.deps.Now()
	c.emit.runStarted(RunInfo{
		RunID:         runID,
		Document:      c.inputs.Document,
		RunDir:        paths.RunDir(),
		MaxIterations: c.cfg.Tuning.Iterations,
		StartedAt:     startedAt,
	})

	questions, err := c.resolveQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if err := question.SaveSet(paths.QuestionsPath(), questions); err != nil {
		return nil, err
	}

	params := pipeline.FromSpec(c.cfg.Params)
	result := &RunResult{
		RunID:         runID,
		Document:      c.inputs.Document,
		Questions:     len(questions.Questions),
		MaxIterations: c.cfg.Tuning.Iterations,
		InitialConfig: params.Snapshot(),
		Repo:          c.inputs.Repo,
		StartedAt:     startedAt,
	}

	runErr := c.iterate(ctx, questions, params, result)
	if runErr != nil && !result.Interrupted {
		return nil, runErr
	}

	result.FinalConfig = params.Snapshot()
	finalizeResult(result)
	result.ElapsedSeconds = c.deps.Now().Sub(startedAt).Seconds()

	c.setState(0, StateReporting)
	if err := runner.WriteJSON(paths.ResultPath(), result); err != nil {
		return result, err
	}
	if err := runner.WriteText(paths.ReportPath(), FormatFinalReport(result)); err != nil {
		return result, err
	}
	c.setState(0, StateDone)
	c.emit.runFinished(result)
	return result, runErr
}

// Paths returns the artifact locations of the current run. Valid after Run
// has minted the run ID.
func (c *Controller) Paths() runner.OutputPaths {
	return c.paths
}

func (c *Controller) setState(iteration int, to State) {
	if c.state == to {
		return
	}
	change := StateChange{Iteration: iteration, From: c.state, To: to}
	c.state = to
	c.emit.stateChange(change)
}

// resolveQuestions reuses the supplied set or generates one from segments.
func (c *Controller) resolveQuestions(ctx context.Context) (question.Set, error) {
	if len(c.inputs.Questions.Questions) > 0 {
		c.emit.questionsReady(len(c.inputs.Questions.Questions), false)
		return c.inputs.Questions, nil
	}
	c.setState(0, StateGeneratingQuestions)
	set, err := c.deps.Generate(ctx, c.inputs.Segments)
	if err != nil {
		return question.Set{}, err
	}
	c.emit.questionsReady(len(set.Questions), true)
	return set, nil
}

// iterate runs iterations until convergence, exhaustion or cancellation.
// Terminal state lands in result.State; the error return is reserved for
// cancellation and hard failures.
func (c *Controller) iterate(ctx context.Context, questions question.Set, params *pipeline.Params, result *RunResult) error {
	threshold := c.cfg.Tuning.ConvergenceThreshold
	maxIterations := c.cfg.Tuning.Iterations

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			c.markInterrupted(iteration, result)
			return err
		}

		summary, suggestions, err := c.runIteration(ctx, iteration, questions, params)
		if err != nil {
			if ctx.Err() != nil {
				c.markInterrupted(iteration, result)
				return ctx.Err()
			}
			return err
		}

		// Two-point convergence: the first iteration has nothing to compare
		// against and never converges.
		if iteration >= 2 {
			summary.ConvergenceChecked = true
			summary.Delta = math.Abs(summary.Statistics.AvgComposite - result.Trajectory[len(result.Trajectory)-1])
		}
		result.Trajectory = append(result.Trajectory, summary.Statistics.AvgComposite)

		converged := summary.ConvergenceChecked && summary.Delta < threshold
		exhausted := iteration == maxIterations

		if !converged && !exhausted && c.cfg.Tuning.ApplyImprovements && len(suggestions) > 0 {
			c.setState(iteration, StateApplying)
			c.applySuggestions(iteration, suggestions, params, &summary)
		}

		if err := runner.WriteJSON(c.paths.SummaryPath(iteration), summary); err != nil {
			return err
		}
		c.emit.iterationFinished(summary)
		result.Iterations = append(result.Iterations, summary)

		if converged {
			result.State = StateConverged
			c.setState(iteration, StateConverged)
			return nil
		}
	}

	result.State = StateExhausted
	c.setState(maxIterations, StateExhausted)
	return nil
}

// runIteration executes, scores and advises one iteration, writing the
// per-iteration artifacts. On cancellation mid-stage the partial records are
// still flushed so the run directory reflects everything that finished.
func (c *Controller) runIteration(ctx context.Context, iteration int, questions question.Set, params *pipeline.Params) (IterationSummary, []advisor.Suggestion, error) {
	startedAt := c.deps.Now()
	snapshot := params.Snapshot()
	summary := IterationSummary{Iteration: iteration, StartedAt: startedAt, Config: snapshot}

	c.setState(iteration, StateExecuting)
	records, batchStats, err := c.deps.Execute(ctx, iteration, questions.Questions, snapshot)
	if err != nil {
		_ = runner.WriteJSON(c.paths.AnswersPath(iteration), records)
		return summary, nil, err
	}
	if err := runner.WriteJSON(c.paths.AnswersPath(iteration), records); err != nil {
		return summary, nil, err
	}
	summary.Batch = batchStats

	c.setState(iteration, StateScoring)
	scores, err := c.deps.Score(ctx, iteration, questions.Questions, records)
	if err != nil {
		_ = runner.WriteJSON(c.paths.ScoresPath(iteration), scores)
		return summary, nil, err
	}
	if err := runner.WriteJSON(c.paths.ScoresPath(iteration), scores); err != nil {
		return summary, nil, err
	}
	summary.Statistics = eval.Aggregate(scores, c.cfg.Tuning.WeakThreshold)

	c.setState(iteration, StateAdvising)
	suggestions := advisor.Suggest(scores, records, snapshot)
	weaknesses := advisor.WeaknessFrequency(scores)
	health := advisor.Retrieval(records)
	report := advisor.ImprovementReport{
		Suggestions: suggestions,
		Actions:     advisor.PriorityActions(suggestions, weaknesses, health),
		Weaknesses:  weaknesses,
		MissingInfo: advisor.MissingInfoFrequency(scores),
		Health:      health,
		Shape:       advisor.Shape(records),
	}
	if c.cfg.Tuning.Advisory {
		advisory, err := c.deps.Advise(ctx, scores, records, snapshot)
		switch {
		case err != nil && ctx.Err() != nil:
			return summary, nil, ctx.Err()
		case err != nil:
			// Advisory is best-effort; the rule-based suggestions stand.
			c.emit.notice(iteration, fmt.Sprintf("advisory skipped: %v", err))
		default:
			report.Advisory = advisory
		}
	}
	if err := runner.WriteText(c.paths.ImprovementsPath(iteration), advisor.FormatImprovementReport(report)); err != nil {
		return summary, nil, err
	}

	summary.Suggestions = suggestions
	summary.Actions = report.Actions
	summary.ElapsedSeconds = c.deps.Now().Sub(startedAt).Seconds()
	return summary, suggestions, nil
}

// applySuggestions mutates the tuning surface between iterations. Only
// runtime-appliable suggestions take effect; re-index ones are recorded as
// skipped so a later ingest run can pick them up.
func (c *Controller) applySuggestions(iteration int, suggestions []advisor.Suggestion, params *pipeline.Params, summary *IterationSummary) {
	for _, suggestion := range suggestions {
		if !suggestion.AppliesWithoutReindex {
			summary.SkippedReindex = append(summary.SkippedReindex, suggestion)
			c.emit.suggestionApplied(iteration, suggestion, false)
			continue
		}
		if !params.Set(suggestion.Parameter, suggestion.SuggestedValue) {
			c.emit.notice(iteration, fmt.Sprintf("unknown parameter %q in suggestion", suggestion.Parameter))
			continue
		}
		summary.Applied = append(summary.Applied, suggestion)
		c.emit.suggestionApplied(iteration, suggestion, true)
	}
}

func (c *Controller) markInterrupted(iteration int, result *RunResult) {
	result.Interrupted = true
	result.State = StateInterrupted
	c.setState(iteration, StateInterrupted)
}

// finalizeResult derives trajectory aggregates once iterations stop.
func finalizeResult(result *RunResult) {
	if len(result.Trajectory) == 0 {
		return
	}
	first := result.Trajectory[0]
	last := result.Trajectory[len(result.Trajectory)-1]
	result.NetImprovement = last - first
	best := 0
	for i, composite := range result.Trajectory {
		if composite > result.Trajectory[best] {
			best = i
		}
	}
	result.BestIteration = best + 1
	result.BestConfig = result.Iterations[best].Config
}

func (c *Controller) generateQuestions(ctx context.Context, segments []question.Segment) (question.Set, error) {
	generator := &question.Generator{
		Client: c.deps.Client,
		OnSegmentError: func(segmentID string, err error) {
			c.emit.notice(0, fmt.Sprintf("segment %s: question generation failed: %v", segmentID, err))
		},
	}
	return generator.Generate(ctx, segments, question.GenerateOptions{
		PerSegment:      c.cfg.Generation.QuestionsPerSegment,
		MaxSegments:     c.cfg.Generation.MaxSegments,
		MinSegmentChars: c.cfg.Document.MinSegmentChars,
		Temperature:     c.cfg.Generation.Temperature,
	})
}

func (c *Controller) executeBatch(ctx context.Context, iteration int, questions []question.Question, params pipeline.Params) ([]runner.AnswerRecord, runner.BatchStats, error) {
	opts := runner.BatchOptions{
		Workers:         c.cfg.Execution.Workers,
		CheckpointEvery: c.cfg.Execution.CheckpointEvery,
		CheckpointPath:  c.paths.AnswersPath(iteration),
		Timeout:         time.Duration(c.cfg.Pipeline.TimeoutSeconds) * time.Second,
		Retries:         c.cfg.Execution.Retries,
		MaxOutputTokens: c.cfg.Execution.MaxOutputTokens,
		Limiter:         c.deps.Limiter,

		Verbose:          c.deps.Verbose,
		VerboseWriter:    c.deps.VerboseWriter,
		VerboseLogWriter: c.deps.VerboseLogWriter,
		NoColor:          c.deps.NoColor,
	}
	var observer runner.BatchObserver
	if c.deps.Observer != nil {
		observer = batchForwarder{emit: c.emit, iteration: iteration}
	}
	return runner.RunBatch(ctx, questions, c.deps.Pipeline, params, opts, observer)
}

func (c *Controller) scoreBatch(ctx context.Context, iteration int, questions []question.Question, records []runner.AnswerRecord) ([]eval.ScoreRecord, error) {
	return eval.Score(ctx, c.deps.Client, questions, records, eval.ScoreOptions{
		Workers:         c.cfg.Execution.Workers,
		Timeout:         time.Duration(c.cfg.Pipeline.TimeoutSeconds) * time.Second,
		Retries:         c.cfg.Execution.Retries,
		MaxOutputTokens: c.cfg.Execution.MaxOutputTokens,
		Limiter:         c.deps.Limiter,
		Service:         c.cfg.LLM.Provider,
		Target:          c.cfg.LLM.Model,
		OnProgress: func(done, total int) {
			c.emit.scoreProgress(iteration, done, total)
		},
	})
}

func (c *Controller) adviseBatch(ctx context.Context, scores []eval.ScoreRecord, records []runner.AnswerRecord, params pipeline.Params) (*advisor.Advisory, error) {
	return advisor.Advise(ctx, c.deps.Client, scores, records, params, int(c.cfg.Execution.MaxOutputTokens))
}

// batchForwarder tags executor events with their iteration.
type batchForwarder struct {
	emit      runEmitter
	iteration int
}

func (f batchForwarder) OnAnswerEvent(event runner.AnswerEvent) {
	f.emit.answerEvent(f.iteration, event)
}
