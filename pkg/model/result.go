package model

// JobResultKind tags the Job Result sum (spec §3 Job Result): a job starts
// Pending, and finishes either Success (optionally percolating follow-up job
// ids back onto the queue) or Failure.
const (
	JobResultKindPending = "pending"
	JobResultKindSuccess = "success"
	JobResultKindFailure = "failure"
)

// SuccessOutcomeKind tags JobResultKindSuccess's content: a job either
// finishes outright (Terminal) or spawns further jobs the caller may want to
// await (Percolated).
const (
	SuccessOutcomeKindTerminal   = "terminal"
	SuccessOutcomeKindPercolated = "percolated"
)

// PercolatedOutcome is the Tagged.Content payload for SuccessOutcomeKindPercolated.
type PercolatedOutcome struct {
	JobIDs []string `json:"job_ids"`
}

// FailureOutcome is the Tagged.Content payload for JobResultKindFailure.
type FailureOutcome struct {
	Reason string `json:"reason"`
}

// JobResult is the value stored under a job's result hash key: Pending when
// the job is enqueued, then the outcome written by the registrar or the
// renderer (spec §3 Job Result).
type JobResult struct {
	JobID  string `bson:"job_id" json:"job_id"`
	Result Tagged `bson:"result" json:"result"`
}

// PendingResult builds the result recorded when a job is first enqueued.
func PendingResult(jobID string) JobResult {
	return JobResult{JobID: jobID, Result: Tagged{Kind: JobResultKindPending}}
}

// TerminalSuccess builds a Success(Terminal) result.
func TerminalSuccess(jobID string) JobResult {
	outcome, err := MarshalTagged(SuccessOutcomeKindTerminal, struct{}{})
	if err != nil {
		panic(err)
	}
	result, err := MarshalTagged(JobResultKindSuccess, outcome)
	if err != nil {
		panic(err)
	}
	return JobResult{JobID: jobID, Result: result}
}

// PercolatedSuccess builds a Success(Percolated{job_ids}) result.
func PercolatedSuccess(jobID string, percolatedJobIDs []string) JobResult {
	outcome, err := MarshalTagged(SuccessOutcomeKindPercolated, PercolatedOutcome{JobIDs: percolatedJobIDs})
	if err != nil {
		panic(err)
	}
	result, err := MarshalTagged(JobResultKindSuccess, outcome)
	if err != nil {
		panic(err)
	}
	return JobResult{JobID: jobID, Result: result}
}

// Failure builds a Failure(reason) result.
func Failure(jobID, reason string) JobResult {
	result, err := MarshalTagged(JobResultKindFailure, FailureOutcome{Reason: reason})
	if err != nil {
		panic(err)
	}
	return JobResult{JobID: jobID, Result: result}
}

// IsTerminal reports whether a result represents a finished job (success or
// failure, as opposed to still-pending).
func (r JobResult) IsTerminal() bool {
	return r.Result.Kind == JobResultKindSuccess || r.Result.Kind == JobResultKindFailure
}
