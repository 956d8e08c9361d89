package audit

import (
	"net/http"
	"strconv"
	"strings"
)

// auditedPrefixes is the fixed allow-list of URL path prefixes the
// response-lifecycle hook covers. Handlers under these prefixes may also call
// LogAudit themselves; duplicate entries for one logical operation are
// expected, the coarse tier exists so nothing protected slips through
// unrecorded.
var auditedPrefixes = map[string]string{
	"/api/v1/patients":              "patients",
	"/api/v1/discharges":            "discharges",
	"/api/v1/admission-information": "admission_information",
	"/api/v1/cardiac-assessments":   "cardiac_assessments",
	"/api/v1/benefit-periods":       "benefit_periods",
}

var methodActions = map[string]Action{
	http.MethodGet:    ActionRead,
	http.MethodPost:   ActionCreate,
	http.MethodPut:    ActionUpdate,
	http.MethodPatch:  ActionUpdate,
	http.MethodDelete: ActionDelete,
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware is the second, coarser audit tier. It fires after the handler
// finishes, for every request whose path sits under an audited prefix,
// independent of whether the handler logged the operation itself.
func (p *Pipeline) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tableName, matched := matchPrefix(r.URL.Path)
		if !matched {
			next.ServeHTTP(w, r)
			return
		}

		action, ok := methodActions[r.Method]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Denied requests never produce an entry; only operations that made
		// it past the gate touch protected data.
		if rec.status == http.StatusUnauthorized || rec.status == http.StatusForbidden {
			return
		}

		p.LogAudit(r, action, tableName, recordIDFromPath(r.URL.Path))
	})
}

func matchPrefix(path string) (string, bool) {
	for prefix, tableName := range auditedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return tableName, true
		}
	}
	return "", false
}

// recordIDFromPath picks the first numeric path segment after the resource
// prefix, if any.
func recordIDFromPath(path string) *int64 {
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		if id, err := strconv.ParseInt(segment, 10, 64); err == nil {
			return &id
		}
	}
	return nil
}
