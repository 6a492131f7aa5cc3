package tracestore

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/bucketrun/bucketrun/common/gerror"
	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/common/util"
)

const defaultPrunePollInterval = 5 * time.Minute

// Pruner periodically deletes step traces older than a retention window, so
// a long-running server command doesn't grow its trace database without
// bound.
type Pruner struct {
	*util.StatefulService
	store            *Store
	retention        time.Duration
	pollInterval     time.Duration
	pruneRequestChan chan chan int
	logger.Log
}

// NewPruner builds a Pruner that, once Start is called, deletes traces older
// than retention every pollInterval. A zero pollInterval uses a 5 minute
// default.
func NewPruner(store *Store, retention time.Duration, pollInterval time.Duration, logFactory logger.LogFactory) *Pruner {
	if pollInterval <= 0 {
		pollInterval = defaultPrunePollInterval
	}
	p := &Pruner{
		store:            store,
		retention:        retention,
		pollInterval:     pollInterval,
		pruneRequestChan: make(chan chan int),
		Log:              logFactory("Pruner"),
	}
	p.StatefulService = util.NewStatefulService(context.Background(), p.Log, p.loop)
	return p
}

func (p *Pruner) loop() {
	p.Tracef("starting trace prune loop")
	for {
		select {
		case <-p.StatefulService.Ctx().Done():
			p.Tracef("trace prune loop stopping")
			return

		case reply := <-p.pruneRequestChan:
			n, err := p.pruneOnce()
			if err != nil {
				p.Errorf("error pruning traces: %v", err)
			}
			reply <- n

		case <-time.After(p.pollInterval):
			n, err := p.pruneOnce()
			if err != nil {
				p.Errorf("error pruning traces: %v", err)
			} else if n > 0 {
				p.Infof("pruned %d traces older than %s", n, p.retention)
			}
		}
	}
}

func (p *Pruner) pruneOnce() (int, error) {
	cutoff := time.Now().Add(-p.retention)
	del := p.store.db.dialect.Delete(stepTraceTable).Where(goqu.C("recorded_at").Lt(cutoff))
	query, args, err := del.ToSQL()
	if err != nil {
		return 0, gerror.NewErrInternal().Wrap(err)
	}
	result, err := p.store.db.ExecContext(p.Ctx(), query, args...)
	if err != nil {
		return 0, gerror.NewErrInternal().Wrap(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

// PruneNow runs a single prune pass immediately and returns the number of
// traces deleted. Intended for tests and for an operator-triggered sweep.
func (p *Pruner) PruneNow() int {
	reply := make(chan int)
	p.pruneRequestChan <- reply
	return <-reply
}
