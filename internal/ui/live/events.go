package live

import (
	"ragtune/internal/advisor"
	"ragtune/internal/loop"
	"ragtune/internal/runner"
)

// EventKind identifies the type of live UI event.
type EventKind int

const (
	// EventRunStart signals the start of a run.
	EventRunStart EventKind = iota
	// EventQuestionsReady reports the resolved question set.
	EventQuestionsReady
	// EventStateChange delivers a controller state transition.
	EventStateChange
	// EventAnswer delivers a per-question execution update.
	EventAnswer
	// EventScoreProgress reports judged counts while scoring.
	EventScoreProgress
	// EventSuggestion reports one suggestion's application outcome.
	EventSuggestion
	// EventIterationEnd delivers a completed iteration summary.
	EventIterationEnd
	// EventNotice delivers a non-fatal warning.
	EventNotice
	// EventRunEnd signals run completion.
	EventRunEnd
)

// Event carries a UI update payload.
type Event struct {
	Kind       EventKind
	Run        loop.RunInfo
	Total      int
	Generated  bool
	Change     loop.StateChange
	Iteration  int
	Answer     runner.AnswerEvent
	ScoreDone  int
	ScoreTotal int
	Suggestion advisor.Suggestion
	Applied    bool
	Summary    loop.IterationSummary
	Notice     string
	Result     *loop.RunResult
}
