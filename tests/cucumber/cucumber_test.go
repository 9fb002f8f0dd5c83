package cucumber

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"
)

// TestSmokeFeatures drives the @smoke scenarios from spec/features against
// the real CLI entry point. The heavier suites (embedded limits, live UI,
// report server) live next to their packages behind the cucumber build tag.
func TestSmokeFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "ragtune-smoke",
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{filepath.Join("..", "..", "spec", "features")},
			Tags:     "@smoke",
			Output:   io.Discard,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("smoke features failed")
	}
}
