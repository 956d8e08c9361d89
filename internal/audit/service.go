package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/healthrecord-management/internal"
	"github.com/frahmantamala/healthrecord-management/internal/authz"
	auditDatamodel "github.com/frahmantamala/healthrecord-management/internal/core/datamodel/audit"
)

// Pipeline writes audit entries without ever failing its caller. The write
// is awaited, but any error is logged and swallowed; the caller's response
// is already decided by the time audit runs and must stay that way.
type Pipeline struct {
	recorder     Recorder
	writeTimeout time.Duration
	logger       *slog.Logger
}

func NewPipeline(recorder Recorder, writeTimeout time.Duration, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		recorder:     recorder,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Record persists exactly one row per invocation. Not transactional with the
// business write it accompanies: an entry can exist for an operation that
// later failed, and a successful operation can lose its entry.
func (p *Pipeline) Record(ctx context.Context, entry Entry) {
	writeCtx, cancel := internal.WithTimeout(context.WithoutCancel(ctx), p.writeTimeout)
	defer cancel()

	row := &auditDatamodel.AuditLog{
		UserID:    entry.UserID,
		Action:    string(entry.Action),
		TableName: entry.TableName,
		RecordID:  entry.RecordID,
		OldValue:  Redact(entry.OldValue),
		NewValue:  Redact(entry.NewValue),
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		CreatedAt: time.Now(),
	}

	if err := p.recorder.Insert(writeCtx, row); err != nil {
		p.logger.Error("audit write failed",
			"action", entry.Action,
			"table_name", entry.TableName,
			"error", err)
	}
}

// LogAudit is the handler-facing entry point: it lifts the principal and
// request metadata out of the request and records the operation.
func (p *Pipeline) LogAudit(r *http.Request, action Action, tableName string, recordID *int64) {
	p.LogAuditValues(r, action, tableName, recordID, nil, nil)
}

// LogAuditValues additionally captures the before/after payloads.
func (p *Pipeline) LogAuditValues(r *http.Request, action Action, tableName string, recordID *int64, oldValue, newValue *string) {
	entry := Entry{
		Action:    action,
		TableName: tableName,
		RecordID:  recordID,
		OldValue:  oldValue,
		NewValue:  newValue,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}

	if principal, ok := authz.PrincipalFromContext(r.Context()); ok && principal != nil {
		if id, err := strconv.ParseInt(principal.ID, 10, 64); err == nil {
			entry.UserID = &id
		}
	} else if uid := internal.UserIDFromContext(r.Context()); uid != "" {
		if id, err := strconv.ParseInt(uid, 10, 64); err == nil {
			entry.UserID = &id
		}
	}

	p.Record(r.Context(), entry)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
