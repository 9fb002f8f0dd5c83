package live

import (
	"time"

	"ragtune/internal/loop"
	"ragtune/internal/runner"
)

// QuestionRow holds UI state for a single question in the current batch.
type QuestionRow struct {
	Index        int
	ID           string
	Text         string
	Status       runner.AnswerEventType
	Attempt      int
	RetryCount   int
	RetryAfterMs int
	Sources      int
	QueryTimeMs  int64
	StartedAt    time.Time
	FinishedAt   time.Time
	Error        string
}

// StatusCounts aggregates question counts by status bucket.
type StatusCounts struct {
	Queued    int
	Scheduled int
	Reserving int
	Waiting   int
	Running   int
	Retrying  int
	Done      int
	Completed int
	Failed    int
}

// TrajectoryPoint is one finished iteration's composite for the header chart.
type TrajectoryPoint struct {
	Iteration    int
	AvgComposite float64
	Delta        float64
	Checked      bool
}

// State captures the live UI state for a tuning run.
type State struct {
	RunID         string
	Document      string
	MaxIterations int
	Iteration     int
	Stage         loop.State
	Questions     int
	Generated     bool
	StartedAt     time.Time
	LastEvent     string
	Rows          []QuestionRow
	Counts        StatusCounts
	ScoreDone     int
	ScoreTotal    int
	Trajectory    []TrajectoryPoint
	FinalLine     string
}
