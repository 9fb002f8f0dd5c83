package loop

// State identifies the controller's position in the tuning loop.
type State string

const (
	// StateIdle is the zero state before Run begins.
	StateIdle State = "idle"
	// StateGeneratingQuestions covers question generation from segments.
	StateGeneratingQuestions State = "generating_questions"
	// StateExecuting covers one iteration's pipeline batch.
	StateExecuting State = "executing"
	// StateScoring covers one iteration's judge batch.
	StateScoring State = "scoring"
	// StateAdvising covers suggestion and advisory computation.
	StateAdvising State = "advising"
	// StateApplying covers parameter application between iterations.
	StateApplying State = "applying"
	// StateConverged ends the loop: the composite score settled.
	StateConverged State = "converged"
	// StateExhausted ends the loop: the iteration budget ran out.
	StateExhausted State = "exhausted"
	// StateInterrupted ends the loop: the context was cancelled.
	StateInterrupted State = "interrupted"
	// StateReporting covers final artifact writing.
	StateReporting State = "reporting"
	// StateDone marks the run complete with all artifacts on disk.
	StateDone State = "done"
)

// Terminal reports whether the state ends the iteration loop.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateExhausted || s == StateInterrupted
}

// StateChange records one controller transition. Iteration is zero for
// run-level transitions.
type StateChange struct {
	Iteration int
	From      State
	To        State
}
