// Package bulk applies a client batch of toggles and deletes over the
// caller's todos. Toggles run in a top-level transaction and deletes in a
// savepoint nested under it, so a failed delete never undoes the toggles and
// a failed toggle never blocks the deletes.
package bulk

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"todo-bulk-update/internal/domain"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
	"todo-bulk-update/pkg/metrics"
)

// Gate resolves a session token to the calling user.
type Gate interface {
	ValidateSession(ctx context.Context, token string) (*domain.User, *domain.Session, error)
}

// Mutator is the per-item use-case pair the orchestrator fans out to.
type Mutator interface {
	Toggle(ctx context.Context, scope domain.Scope, id int64, callerID string) (domain.Todo, error)
	Delete(ctx context.Context, scope domain.Scope, id int64, callerID string) (domain.Todo, error)
}

type itemFunc func(ctx context.Context, scope domain.Scope, id int64, callerID string) (domain.Todo, error)

type Orchestrator struct {
	gate    Gate
	tm      domain.TransactionManager
	items   Mutator
	metrics *metrics.BatchMetrics
	log     *logging.ComponentLogger
}

func NewOrchestrator(gate Gate, tm domain.TransactionManager, items Mutator, m *metrics.BatchMetrics, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		gate:    gate,
		tm:      tm,
		items:   items,
		metrics: m,
		log:     logger.WithComponent("bulk"),
	}
}

// ExecuteJSON authenticates first, then parses body and runs the batch.
func (o *Orchestrator) ExecuteJSON(ctx context.Context, body []byte, token string) (*Report, error) {
	user, err := o.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	req, err := ParseBatchRequest(body)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, user.ID, req)
}

// Execute runs req for the owner of token. Only authentication failures and
// transaction infrastructure failures are returned as errors; a rolled back
// sub-batch is reported in the Report.
func (o *Orchestrator) Execute(ctx context.Context, req BatchRequest, token string) (*Report, error) {
	user, err := o.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, user.ID, req)
}

func (o *Orchestrator) authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, errs.NewUnauthenticated("bulk.Execute", "Must be logged in to bulk update todos")
	}
	user, _, err := o.gate.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (o *Orchestrator) run(ctx context.Context, callerID string, req BatchRequest) (*Report, error) {
	start := time.Now()
	defer func() { o.metrics.ExecuteDuration.Observe(time.Since(start).Seconds()) }()

	ctx = logging.ContextWithUserID(ctx, callerID)
	log := o.log.WithContext(ctx)

	report := &Report{}
	err := o.tm.StartTransaction(ctx, nil, func(ctx context.Context, top domain.Scope) error {
		toggles, err := o.subBatch(ctx, metrics.SubBatchToggles, top, req.ToggleIDs, callerID, o.items.Toggle)
		if err != nil {
			return err
		}

		var deletes SubBatchReport
		err = o.tm.StartTransaction(ctx, top, func(ctx context.Context, nested domain.Scope) error {
			var err error
			deletes, err = o.subBatch(ctx, metrics.SubBatchDeletes, nested, req.DeleteIDs, callerID, o.items.Delete)
			return err
		})
		if err != nil {
			return err
		}

		report.Toggles, report.Deletes = toggles, deletes
		return nil
	})
	if err != nil {
		log.Error("batch aborted", err, logging.String("kind", errs.KindOf(err).String()))
		return nil, err
	}

	o.record(metrics.SubBatchToggles, report.Toggles)
	o.record(metrics.SubBatchDeletes, report.Deletes)
	log.Info("batch executed",
		logging.Int("toggles", len(req.ToggleIDs)),
		logging.String("toggles_outcome", report.Toggles.Outcome),
		logging.Int("deletes", len(req.DeleteIDs)),
		logging.String("deletes_outcome", report.Deletes.Outcome))
	return report, nil
}

// subBatch fans fn out over ids under scope and waits for every call. When
// any call fails the scope is rolled back and the remaining results are
// discarded. The returned error is only ever a rollback failure.
func (o *Orchestrator) subBatch(ctx context.Context, name string, scope domain.Scope, ids []int64, callerID string, fn itemFunc) (SubBatchReport, error) {
	if len(ids) == 0 {
		return SubBatchReport{Outcome: metrics.OutcomeEmpty, Items: []ItemOutcome{}}, nil
	}

	errsByItem := make([]error, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			_, err := fn(ctx, scope, id, callerID)
			errsByItem[i] = err
			return err
		})
	}
	firstErr := g.Wait()

	items := make([]ItemOutcome, len(ids))
	if firstErr == nil {
		for i, id := range ids {
			items[i] = ItemOutcome{ID: id, Result: metrics.ResultApplied}
		}
		return SubBatchReport{Outcome: metrics.OutcomeCommitted, Items: items}, nil
	}

	var failed []int64
	for i, id := range ids {
		if err := errsByItem[i]; err != nil {
			failed = append(failed, id)
			items[i] = ItemOutcome{ID: id, Result: metrics.ResultFailed, Kind: errs.KindOf(err).String()}
			continue
		}
		items[i] = ItemOutcome{ID: id, Result: metrics.ResultDiscarded}
	}

	o.log.WithContext(ctx).Warn("rolling back "+name,
		logging.String("kind", errs.KindOf(firstErr).String()),
		logging.String("error", firstErr.Error()),
		logging.Int64s("failed", failed),
		logging.Int("items", len(ids)))
	if err := scope.Rollback(); err != nil {
		return SubBatchReport{}, err
	}
	return SubBatchReport{Outcome: metrics.OutcomeRolledBack, Items: items}, nil
}

func (o *Orchestrator) record(name string, r SubBatchReport) {
	o.metrics.SubBatches.WithLabelValues(name, r.Outcome).Inc()
	for _, it := range r.Items {
		o.metrics.Items.WithLabelValues(name, it.Result).Inc()
	}
}
