// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for publishing run outcome events.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Drain gracefully drains pending messages before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error
}

// Subjects for run outcome events.
const (
	SubjectRunCompleted = "runs.completed" // real execution finished
	SubjectRunDryRun    = "runs.dryrun"    // estimate-only run logged
	SubjectRunRejected  = "runs.rejected"  // blocked by the budget gate
	SubjectRunErrored   = "runs.errored"   // pipeline failed, degraded record logged
)

// SubjectFor maps a run status string to its event subject.
func SubjectFor(status string) string {
	switch status {
	case "executed":
		return SubjectRunCompleted
	case "dry_run":
		return SubjectRunDryRun
	case "rejected_budget":
		return SubjectRunRejected
	default:
		return SubjectRunErrored
	}
}
