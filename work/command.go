package work

import (
	"context"
	"fmt"
)

type Op string

const (
	OpInsert  Op = "insert"
	OpReplace Op = "replace"
	OpDelete  Op = "delete"
)

// Command is a deferred write. The descriptive fields exist for logs,
// traces and tests; Execute performs the write.
type Command struct {
	Op         Op
	Collection string
	Partition  string
	DocumentID string
	Execute    func(ctx context.Context) error
}

func (c Command) String() string {
	return fmt.Sprintf("%s %s/%s/%s", c.Op, c.Collection, c.Partition, c.DocumentID)
}

// CommitError reports the queued command that failed. Commands before
// Index were applied and are gone from the queue; the failed command and
// everything after it are still pending.
type CommitError struct {
	Index   int
	Command Command
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit command %d (%s): %v", e.Index, e.Command, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
