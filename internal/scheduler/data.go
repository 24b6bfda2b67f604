package scheduler

import (
	"github.com/rohmanhakim/record-finder/internal/report"
	"github.com/rohmanhakim/record-finder/internal/storage"
)

// Plan says what to cluster in every document of a batch.
type Plan struct {
	Mode report.Mode
	// CSS selector of the element whose children are clustered in subtree
	// mode. Empty picks the widest element.
	ParentSelector string
	// Persist writes each rendered report through the storage sink.
	Persist bool
}

// DocumentOutcome is the result for one document of a batch.
type DocumentOutcome struct {
	Source   string
	Report   report.Report
	Rendered []byte
	// Zero unless the plan persists reports.
	WriteResult storage.WriteResult
}

type BatchExecution struct {
	Outcomes []DocumentOutcome
	// Sources dropped because an equivalent source came earlier.
	Duplicates int
	// Documents skipped after a recoverable failure.
	Errors int
}
