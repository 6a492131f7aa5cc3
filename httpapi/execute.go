package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bucketrun/bucketrun/common/gerror"
	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/diagnostics"
	"github.com/bucketrun/bucketrun/engine"
	"github.com/bucketrun/bucketrun/tracestore"
)

// ExecuteAPI exposes registered LayerPlans over HTTP: POST a bucket size
// and caller-supplied metadata, get back the resolved columns.
type ExecuteAPI struct {
	*Base
	plans      map[string]*engine.LayerPlan
	logFactory logger.LogFactory
	traceStore *tracestore.Store
}

// NewExecuteAPI builds an ExecuteAPI. traceStore may be nil, in which case
// requests are executed without recording step traces.
func NewExecuteAPI(plans map[string]*engine.LayerPlan, logFactory logger.LogFactory, traceStore *tracestore.Store) *ExecuteAPI {
	return &ExecuteAPI{Base: NewBase(logFactory("ExecuteAPI")), plans: plans, logFactory: logFactory, traceStore: traceStore}
}

type executeRequest struct {
	Size int             `json:"size"`
	Meta json.RawMessage `json:"meta"`
}

type executeResponse struct {
	HasErrors bool                       `json:"hasErrors"`
	Columns   map[string][]cellDocument `json:"columns"`
}

// cellDocument is the wire form of a single Cell: either the raw value, or,
// for a row that ended in an ErrorValue, a small error descriptor in its
// place.
type cellDocument struct {
	Value  interface{} `json:"value,omitempty"`
	Error  string      `json:"error,omitempty"`
	StepID string      `json:"stepId,omitempty"`
}

// Execute runs the named plan over a fresh bucket and returns its final
// columns. It is registered at POST /api/v1/plans/{name}/execute.
func (a *ExecuteAPI) Execute(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	plan, ok := a.plans[name]
	if !ok {
		a.Error(w, r, gerror.NewErrValidationFailed("unknown plan").EDetail("name", name))
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Error(w, r, gerror.NewErrValidationFailed("malformed request body").Wrap(err))
		return
	}
	if req.Size <= 0 {
		a.Error(w, r, gerror.NewErrValidationFailed("size must be positive"))
		return
	}

	var meta interface{}
	if len(req.Meta) > 0 {
		if err := json.Unmarshal(req.Meta, &meta); err != nil {
			a.Error(w, r, gerror.NewErrValidationFailed("malformed meta").Wrap(err))
			return
		}
	}

	bucket := engine.NewBucket(req.Size)
	emitter := diagnostics.NewEmitter(a.logFactory)
	if a.traceStore != nil {
		bucketID := uuid.New().String()
		emitter.Subscribe(tracestore.NewRecorder(a.traceStore, bucketID, clock.New()))
		w.Header().Set("X-Bucket-Id", bucketID)
	}
	opts := engine.ExecutionOptions{Meta: meta, EventEmitter: emitter}

	if err := engine.ExecuteBucket(r.Context(), plan, bucket, opts); err != nil {
		a.Error(w, r, err)
		return
	}

	resp := executeResponse{HasErrors: bucket.HasErrors(), Columns: make(map[string][]cellDocument)}
	for _, id := range plan.Order() {
		col, _ := bucket.Column(id)
		docs := make([]cellDocument, len(col))
		for i, cell := range col {
			if ev, isErr := engine.AsErrorValue(cell); isErr {
				docs[i] = cellDocument{Error: ev.Error(), StepID: ev.StepID().String()}
				continue
			}
			docs[i] = cellDocument{Value: cell}
		}
		resp.Columns[id.String()] = docs
	}

	a.Ok(w, r, resp)
}
