//go:build cucumber

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"ragtune/internal/runner"
	"ragtune/internal/ui/live"
)

// TestLiveUIScenarios runs the live UI feature scenarios.
func TestLiveUIScenarios(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	featurePath := filepath.Join("..", "..", "spec", "features", "live-ui.feature")
	suite := godog.TestSuite{
		Name:                "live-ui",
		ScenarioInitializer: InitializeLiveUIScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{featurePath},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeLiveUIScenario wires steps for live UI scenarios.
func InitializeLiveUIScenario(ctx *godog.ScenarioContext) {
	state := &liveUIScenarioState{}
	orig := isTerminal
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		isTerminal = func(io.Writer) bool { return state.isTTY }
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		isTerminal = orig
		return ctx, nil
	})

	ctx.Step(`^a TTY stdout$`, state.givenTTY)
	ctx.Step(`^stdout is not a TTY$`, state.givenNonTTY)
	ctx.Step(`^a tuning batch of (\d+) questions$`, state.givenBatch)
	ctx.Step(`^a question waiting on a rate limit$`, state.givenRateLimitedQuestion)
	ctx.Step(`^I run "([^"]+)"$`, state.whenIRun)
	ctx.Step(`^a live UI is shown$`, state.thenLiveUIShown)
	ctx.Step(`^the UI lists each question with a status$`, state.thenQuestionStatuses)
	ctx.Step(`^the UI shows the rate-limit wait for that question$`, state.thenRateLimitWaitShown)
	ctx.Step(`^the output uses plain summary text$`, state.thenPlainOutput)
}

type liveUIScenarioState struct {
	isTTY    bool
	batch    int
	decision uiModeDecision
	uiState  live.State
}

// reset clears scenario state.
func (s *liveUIScenarioState) reset() {
	s.isTTY = false
	s.batch = 0
	s.decision = uiModeDecision{}
	s.uiState = live.State{}
}

// givenTTY marks stdout as a TTY.
func (s *liveUIScenarioState) givenTTY() error {
	s.isTTY = true
	return nil
}

// givenNonTTY marks stdout as non-TTY.
func (s *liveUIScenarioState) givenNonTTY() error {
	s.isTTY = false
	return nil
}

// givenBatch seeds queued questions for UI state.
func (s *liveUIScenarioState) givenBatch(count int) error {
	s.batch = count
	now := time.Now()
	for i := 0; i < count; i++ {
		s.uiState = live.Reduce(s.uiState, runner.AnswerEvent{
			QuestionIndex: i,
			QuestionID:    fmt.Sprintf("q%d", i+1),
			QuestionText:  "Question",
			Type:          runner.AnswerQueued,
			EmittedAt:     now,
		})
	}
	return nil
}

// givenRateLimitedQuestion seeds a question held back by the limiter.
func (s *liveUIScenarioState) givenRateLimitedQuestion() error {
	now := time.Now()
	s.uiState = live.Reduce(s.uiState, runner.AnswerEvent{
		QuestionIndex: 0,
		QuestionID:    "q1",
		QuestionText:  "Question",
		Type:          runner.AnswerReserving,
		EmittedAt:     now,
	})
	s.uiState = live.Reduce(s.uiState, runner.AnswerEvent{
		QuestionIndex: 0,
		QuestionID:    "q1",
		QuestionText:  "Question",
		Type:          runner.AnswerWaitingRateLimit,
		RetryAfterMs:  1500,
		EmittedAt:     now,
	})
	return nil
}

// whenIRun evaluates the UI mode decision for the scenario.
func (s *liveUIScenarioState) whenIRun(_ string) error {
	decision, err := resolveUIMode("auto", false, nil)
	if err != nil {
		return err
	}
	s.decision = decision
	return nil
}

// thenLiveUIShown asserts the live UI is enabled.
func (s *liveUIScenarioState) thenLiveUIShown() error {
	if !s.decision.useLive {
		return fmt.Errorf("expected live UI to be enabled")
	}
	return nil
}

// thenQuestionStatuses asserts a row exists per question.
func (s *liveUIScenarioState) thenQuestionStatuses() error {
	if len(s.uiState.Rows) != s.batch {
		return fmt.Errorf("expected %d question rows, got %d", s.batch, len(s.uiState.Rows))
	}
	for i, row := range s.uiState.Rows {
		if row.Status == "" {
			return fmt.Errorf("row %d has no status", i)
		}
	}
	return nil
}

// thenRateLimitWaitShown asserts rate-limit wait state is recorded.
func (s *liveUIScenarioState) thenRateLimitWaitShown() error {
	if len(s.uiState.Rows) == 0 {
		return fmt.Errorf("expected question rows")
	}
	row := s.uiState.Rows[0]
	if row.Status != runner.AnswerWaitingRateLimit {
		return fmt.Errorf("expected waiting status, got %q", row.Status)
	}
	if row.RetryAfterMs != 1500 {
		return fmt.Errorf("expected retry-after to be recorded, got %d", row.RetryAfterMs)
	}
	if s.uiState.Counts.Waiting != 1 {
		return fmt.Errorf("expected one waiting question, got %d", s.uiState.Counts.Waiting)
	}
	return nil
}

// thenPlainOutput asserts the live UI is disabled.
func (s *liveUIScenarioState) thenPlainOutput() error {
	if s.decision.useLive {
		return fmt.Errorf("expected plain output")
	}
	return nil
}
