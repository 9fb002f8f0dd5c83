package live

import (
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"ragtune/internal/advisor"
	"ragtune/internal/loop"
	"ragtune/internal/runner"
)

// Controller runs the live UI and implements loop.RunObserver.
type Controller struct {
	events    chan Event
	program   *tea.Program
	done      chan struct{}
	closeOnce sync.Once
}

// Start launches a live UI controller that writes to stdout.
func Start(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	events := make(chan Event, 256)
	model := NewModel(events, opts)
	program := tea.NewProgram(model, tea.WithOutput(stdout), tea.WithAltScreen())
	controller := &Controller{
		events:  events,
		program: program,
		done:    make(chan struct{}),
	}
	go func() {
		_, _ = program.Run()
		close(controller.done)
	}()
	return controller
}

// Close signals the UI to stop.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.events)
	})
}

// Wait blocks until the UI has exited.
func (c *Controller) Wait() {
	if c == nil {
		return
	}
	<-c.done
}

// OnRunStarted forwards run start events to the UI.
func (c *Controller) OnRunStarted(info loop.RunInfo) {
	c.send(Event{Kind: EventRunStart, Run: info})
}

// OnQuestionsReady forwards the resolved question set size.
func (c *Controller) OnQuestionsReady(total int, generated bool) {
	c.send(Event{Kind: EventQuestionsReady, Total: total, Generated: generated})
}

// OnStateChange forwards controller state transitions.
func (c *Controller) OnStateChange(change loop.StateChange) {
	c.send(Event{Kind: EventStateChange, Change: change})
}

// OnAnswerEvent forwards per-question execution updates.
func (c *Controller) OnAnswerEvent(iteration int, event runner.AnswerEvent) {
	c.send(Event{Kind: EventAnswer, Iteration: iteration, Answer: event})
}

// OnScoreProgress forwards judged counts while scoring.
func (c *Controller) OnScoreProgress(iteration, done, total int) {
	c.send(Event{Kind: EventScoreProgress, Iteration: iteration, ScoreDone: done, ScoreTotal: total})
}

// OnSuggestionApplied forwards one suggestion's application outcome.
func (c *Controller) OnSuggestionApplied(iteration int, suggestion advisor.Suggestion, applied bool) {
	c.send(Event{Kind: EventSuggestion, Iteration: iteration, Suggestion: suggestion, Applied: applied})
}

// OnIterationFinished forwards a completed iteration summary.
func (c *Controller) OnIterationFinished(summary loop.IterationSummary) {
	c.send(Event{Kind: EventIterationEnd, Summary: summary})
}

// OnNotice forwards a non-fatal warning.
func (c *Controller) OnNotice(iteration int, message string) {
	c.send(Event{Kind: EventNotice, Iteration: iteration, Notice: message})
}

// OnRunFinished forwards run completion and closes the UI.
func (c *Controller) OnRunFinished(result *loop.RunResult) {
	c.send(Event{Kind: EventRunEnd, Result: result})
	c.Close()
}

// send enqueues an event without blocking the caller.
func (c *Controller) send(event Event) {
	if c == nil {
		return
	}
	select {
	case c.events <- event:
	default:
	}
}
