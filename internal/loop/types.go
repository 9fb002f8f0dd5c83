package loop

import (
	"time"

	"ragtune/internal/advisor"
	"ragtune/internal/eval"
	"ragtune/internal/pipeline"
	"ragtune/internal/runner"
	"ragtune/internal/vcs"
)

// IterationSummary is one iteration's persisted record, written to
// iterations/iter_<N>/summary.json. Config is the snapshot the iteration ran
// with; Applied and SkippedReindex record what the controller did with the
// suggestions afterwards.
type IterationSummary struct {
	Iteration          int                  `json:"iteration"`
	StartedAt          time.Time            `json:"started_at"`
	Statistics         eval.Statistics      `json:"statistics"`
	Batch              runner.BatchStats    `json:"query_statistics"`
	Suggestions        []advisor.Suggestion `json:"suggestions"`
	Actions            []advisor.Action     `json:"priority_actions"`
	Applied            []advisor.Suggestion `json:"applied"`
	SkippedReindex     []advisor.Suggestion `json:"skipped_reindex"`
	Config             pipeline.Params      `json:"config"`
	ElapsedSeconds     float64              `json:"elapsed_seconds"`
	ConvergenceChecked bool                 `json:"convergence_checked"`
	Delta              float64              `json:"delta"`
}

// RepoInfo is version-control provenance captured at run start.
type RepoInfo struct {
	Name   string `json:"name"`
	VCS    string `json:"vcs"`
	Commit string `json:"commit"`
	Branch string `json:"branch"`
	Dirty  bool   `json:"dirty"`
}

// RepoInfoFromMetadata converts discovered repository metadata.
func RepoInfoFromMetadata(meta vcs.Metadata) *RepoInfo {
	return &RepoInfo{
		Name:   meta.Name,
		VCS:    meta.VCS,
		Commit: meta.Commit,
		Branch: meta.Branch,
		Dirty:  meta.Dirty,
	}
}

// RunResult is the final persisted record of a tuning run, written to
// result.json. Trajectory holds per-iteration composite averages in order.
type RunResult struct {
	RunID          string             `json:"run_id"`
	Document       string             `json:"document,omitempty"`
	State          State              `json:"state"`
	Interrupted    bool               `json:"interrupted"`
	Questions      int                `json:"questions"`
	MaxIterations  int                `json:"max_iterations"`
	Iterations     []IterationSummary `json:"iterations"`
	Trajectory     []float64          `json:"trajectory"`
	NetImprovement float64            `json:"net_improvement"`
	BestIteration  int                `json:"best_iteration"`
	InitialConfig  pipeline.Params    `json:"initial_config"`
	FinalConfig    pipeline.Params    `json:"final_config"`
	BestConfig     pipeline.Params    `json:"best_config"`
	Repo           *RepoInfo          `json:"repo,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
}
