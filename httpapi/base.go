package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/bucketrun/bucketrun/common/gerror"
	"github.com/bucketrun/bucketrun/common/logger"
)

// ErrorDocument is the JSON body written for a failed request.
type ErrorDocument struct {
	Code           gerror.Code                       `json:"code"`
	HTTPStatusCode int                               `json:"httpStatusCode"`
	Message        string                            `json:"message"`
	Details        map[gerror.DetailKey]interface{} `json:"details,omitempty"`
}

// Base provides the handlers in this package with standardized JSON success
// and error responses, matching gerror's audience rules: only details and
// messages marked external ever reach the client.
type Base struct {
	logger.Log
}

func NewBase(log logger.Log) *Base {
	return &Base{Log: log}
}

// JSON marshals v as the response body and sets the status code stashed in
// the request context by Ok or Error, defaulting to 200.
func (b *Base) JSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		b.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status, ok := r.Context().Value(render.StatusCtxKey).(int); ok {
		w.WriteHeader(status)
	}
	w.Write(buf.Bytes())
}

// Ok writes v as a 200 JSON response.
func (b *Base) Ok(w http.ResponseWriter, r *http.Request, v interface{}) {
	r = r.WithContext(context.WithValue(r.Context(), render.StatusCtxKey, http.StatusOK))
	b.JSON(w, r, v)
}

// Error writes err as a standardized ErrorDocument, logging it and
// inferring the HTTP status code from its gerror.Code where possible.
func (b *Base) Error(w http.ResponseWriter, r *http.Request, err error) {
	b.Warnf("error handling request: %v", err)

	var gErr gerror.Error
	if !errors.As(err, &gErr) || gErr.Audience() != gerror.AudienceExternal {
		gErr = gerror.NewErrInternal()
	}
	doc := &ErrorDocument{
		Code:           gErr.Code(),
		HTTPStatusCode: gErr.HTTPStatusCode(),
		Message:        gErr.Message(),
		Details:        make(map[gerror.DetailKey]interface{}),
	}
	for _, detail := range gErr.Details() {
		if detail.Audience() == gerror.AudienceExternal {
			doc.Details[detail.Key()] = detail.Value()
		}
	}
	r = r.WithContext(context.WithValue(r.Context(), render.StatusCtxKey, gErr.HTTPStatusCode()))
	b.JSON(w, r, doc)
}
