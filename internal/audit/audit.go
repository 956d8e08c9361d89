package audit

import (
	"context"
	"encoding/json"
	"strings"

	auditDatamodel "github.com/frahmantamala/healthrecord-management/internal/core/datamodel/audit"
)

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Entry is the domain shape handed to the pipeline. Old/new values must be
// passed through Redact before they reach storage.
type Entry struct {
	UserID    *int64
	Action    Action
	TableName string
	RecordID  *int64
	OldValue  *string
	NewValue  *string
	IPAddress string
	UserAgent string
}

// Recorder persists audit rows. Implementations never see redaction; the
// pipeline owns that.
type Recorder interface {
	Insert(ctx context.Context, row *auditDatamodel.AuditLog) error
}

// sensitiveKeys are JSON field names stripped from audit values before
// storage. Raw PHI and credentials never land in old_value/new_value.
var sensitiveKeys = []string{
	"password",
	"password_hash",
	"token",
	"access_token",
	"refresh_token",
	"authorization",
	"secret",
	"ssn",
	"social_security_number",
	"medical_record_number",
	"diagnosis",
	"insurance_number",
}

const redactedPlaceholder = "[REDACTED]"

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Redact replaces sensitive fields in a JSON payload with a placeholder.
// Non-JSON input is dropped entirely rather than stored unfiltered.
func Redact(value *string) *string {
	if value == nil {
		return nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(*value), &payload); err != nil {
		return nil
	}

	redactMap(payload)

	out, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	s := string(out)
	return &s
}

func redactMap(payload map[string]interface{}) {
	for key, val := range payload {
		if isSensitiveKey(key) {
			payload[key] = redactedPlaceholder
			continue
		}
		redactValue(val)
	}
}

func redactValue(val interface{}) {
	switch v := val.(type) {
	case map[string]interface{}:
		redactMap(v)
	case []interface{}:
		for _, item := range v {
			redactValue(item)
		}
	}
}
