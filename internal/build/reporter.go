package build

// Stage identifies the step of a build a progress report belongs to.
type Stage string

// Build stages in execution order.
const (
	StageCatalog  Stage = "catalog"
	StageDiscover Stage = "discover"
	StageParse    Stage = "parse"
	StageMerge    Stage = "merge"
	StageVariant  Stage = "variant"
	StageDone     Stage = "done"
)

// Reporter receives human-readable progress messages. Reports are delivered
// from the goroutine that called Run, except during StageParse where they may
// arrive concurrently.
type Reporter interface {
	Report(stage Stage, msg string)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(stage Stage, msg string)

// Report calls f.
func (f ReporterFunc) Report(stage Stage, msg string) {
	f(stage, msg)
}

type nopReporter struct{}

func (nopReporter) Report(Stage, string) {}
