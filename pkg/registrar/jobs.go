package registrar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lanternhq/beacon/internal/envelope"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/model"
	"github.com/lanternhq/beacon/pkg/rendering"
)

// RegistrarJobQueueKey is the broker's fixed registrar job queue name (spec
// §6: "ob:registrar:jobs").
const RegistrarJobQueueKey = "ob:registrar:jobs"

// JobResultsKey is the broker's fixed job-result hash name (spec §6:
// "ob:registrar:results").
const JobResultsKey = "ob:registrar:results"

// JobPopTimeout is the registrar's blocking-pop timeout for the job queue
// (spec §4.D step 5, §5: "3 s").
const JobPopTimeout = 3 * time.Second

// EnqueueJob assigns a fresh id to a job, signs it, RPUSHes it onto the
// registrar job queue, and presets its result to Pending (spec §4.D
// "Result recording. ... On enqueue, handlers preset Pending."). It takes the
// broker/signer explicitly rather than reading worker state so that
// pkg/webapi's HTTP handlers — write-once job producers per spec §3's
// ownership rules — can enqueue without depending on *Worker.
func EnqueueJob(ctx context.Context, broker *platform.Broker, signer *envelope.Signer, job model.Tagged) (string, error) {
	rj := model.RegistrarJob{ID: uuid.NewString(), Job: job}

	token, err := signer.Encode(rj, rendering.EnvelopeTTL)
	if err != nil {
		return "", fmt.Errorf("registrar: signing job envelope: %w", err)
	}
	if _, err := broker.RPush(ctx, RegistrarJobQueueKey, token); err != nil {
		return "", fmt.Errorf("registrar: pushing job: %w", err)
	}

	pending := model.PendingResult(rj.ID)
	if err := RecordResult(ctx, broker, pending); err != nil {
		return "", err
	}
	return rj.ID, nil
}

// RecordResult writes a job result into the shared job-results hash.
func RecordResult(ctx context.Context, broker *platform.Broker, result model.JobResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("registrar: serializing job result: %w", err)
	}
	if err := broker.HSet(ctx, JobResultsKey, result.JobID, raw); err != nil {
		return fmt.Errorf("registrar: writing job result: %w", err)
	}
	return nil
}

// ReadResult fetches and decodes a job's current result, used by GET /jobs.
func ReadResult(ctx context.Context, broker *platform.Broker, jobID string) (model.JobResult, error) {
	raw, err := broker.HGet(ctx, JobResultsKey, jobID)
	if err != nil {
		return model.JobResult{}, err
	}
	var result model.JobResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return model.JobResult{}, fmt.Errorf("registrar: decoding job result: %w", err)
	}
	return result, nil
}

// EnqueueJob is the Worker-bound convenience wrapper EnqueueJob callers inside
// this package use; it reads the worker's own broker/signer.
func (w *Worker) EnqueueJob(ctx context.Context, job model.Tagged) (string, error) {
	return EnqueueJob(ctx, w.broker, w.signer, job)
}

func (w *Worker) recordResult(ctx context.Context, result model.JobResult) error {
	return RecordResult(ctx, w.broker, result)
}

// jobTick implements spec §4.D step 5: pop one job off the queue with a
// blocking timeout, decode its envelope, and dispatch on JobKind.
func (w *Worker) jobTick(ctx context.Context) error {
	popped, err := w.broker.BLPop(ctx, JobPopTimeout, RegistrarJobQueueKey)
	if err != nil {
		if platform.IsNoData(err) {
			return nil
		}
		return fmt.Errorf("registrar: popping job queue: %w", err)
	}
	// BLPop returns [key, value]; the job token is the second element.
	if len(popped) < 2 {
		return nil
	}

	var job model.RegistrarJob
	if err := w.signer.Decode(popped[1], &job); err != nil {
		w.logger.Error("registrar: discarding malformed or expired job envelope", "error", err)
		return nil
	}

	if err := w.dispatch(ctx, job); err != nil {
		w.logger.Error("registrar: job dispatch failed", "job_id", job.ID, "kind", job.Job.Kind, "error", err)
		if recErr := w.recordResult(ctx, model.Failure(job.ID, err.Error())); recErr != nil {
			return recErr
		}
		return nil
	}
	return nil
}

// dispatch routes a job to its handler and records Success(Terminal) once
// the handler reports no percolated follow-up job (spec §4.D "Dispatch and
// semantics per job kind").
func (w *Worker) dispatch(ctx context.Context, job model.RegistrarJob) error {
	var percolated []string
	var err error

	switch job.Job.Kind {
	case model.JobKindOwnership:
		err = w.handleOwnership(ctx, job.Job)
	case model.JobKindOwnershipChange:
		err = w.handleOwnershipChange(ctx, job.Job)
	case model.JobKindRename:
		err = w.handleRename(ctx, job.Job)
	case model.JobKindRenders:
		err = w.handleRenders(ctx, job.Job)
	case model.JobKindUserAccessTokenRefresh:
		err = w.handleUserAccessTokenRefresh(ctx, job.Job)
	case model.JobKindMutateDeviceState:
		percolated, err = w.handleMutateDeviceState(ctx, job.Job)
	case model.JobKindRunDeviceSchedule:
		err = w.handleRunDeviceSchedule(ctx, job.Job)
	case model.JobKindToggleDefaultSchedule:
		percolated, err = w.handleToggleDefaultSchedule(ctx, job.Job)
	default:
		err = fmt.Errorf("unknown job kind %q", job.Job.Kind)
	}
	if err != nil {
		return err
	}

	if len(percolated) > 0 {
		return w.recordResult(ctx, model.PercolatedSuccess(job.ID, percolated))
	}
	return w.recordResult(ctx, model.TerminalSuccess(job.ID))
}
