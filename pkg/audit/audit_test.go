package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedLogger(buf *bytes.Buffer) *Logger {
	l := NewLogger(buf)
	l.hostname = "orchard-host"
	l.pid = 42
	l.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return l
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := fixedLogger(&buf)

	logger.Log(BranchEvent{
		Operation: "update",
		TreeID:    3,
		BranchID:  9,
		RequestID: "req-1",
		ClientIP:  "192.168.1.1",
		Success:   true,
	})

	expected := `<110>1 2025-03-01T12:00:00.000Z orchard-host orchard 42 branch-update ` +
		`[action@32473 operation="update" result="success"]` +
		`[client@32473 ip="192.168.1.1" request="req-1"]` +
		`[subject@32473 branch="9" tree="3"] branch 9 of tree 3 updated` + "\n"
	assert.Equal(t, expected, buf.String())
}

func TestTreeEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     TreeEvent
		wantMsg   string
		wantSev   Severity
		wantMsgID string
	}{
		{
			name:      "successful create",
			event:     TreeEvent{Operation: "create", TreeID: 1, Success: true},
			wantMsg:   "tree 1 created",
			wantSev:   SeverityInfo,
			wantMsgID: "tree-create",
		},
		{
			name:      "failed create before an id exists",
			event:     TreeEvent{Operation: "create", ErrorMessage: "id must be absent on creation"},
			wantMsg:   "failed to create tree: id must be absent on creation",
			wantSev:   SeverityWarning,
			wantMsgID: "tree-create",
		},
		{
			name:      "successful delete",
			event:     TreeEvent{Operation: "delete", TreeID: 5, Success: true},
			wantMsg:   "tree 5 deleted",
			wantSev:   SeverityInfo,
			wantMsgID: "tree-delete",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.event.Message())
			assert.Equal(t, tt.wantSev, tt.event.Severity())
			assert.Equal(t, tt.wantMsgID, tt.event.MessageID())
			assert.Equal(t, FacilityLogAudit, tt.event.Facility())
		})
	}
}

func TestBranchEventStructuredData(t *testing.T) {
	event := BranchEvent{Operation: "remove", TreeID: 2, BranchID: 4, ClientIP: "10.0.0.1", ErrorMessage: "branch 4 not found in tree 2"}

	sd := event.StructuredData()
	assert.Equal(t, "2", sd[SDIDSubject]["tree"])
	assert.Equal(t, "4", sd[SDIDSubject]["branch"])
	assert.Equal(t, "failure", sd[SDIDAction]["result"])
	assert.NotContains(t, sd[SDIDClient], "request")
	assert.Equal(t, "failed to remove branch 4 of tree 2: branch 4 not found in tree 2", event.Message())
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{`with]bracket`, `"with\]bracket"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeSDValue(tt.input))
		})
	}
}

func TestFormatStructuredDataEmpty(t *testing.T) {
	assert.Equal(t, "", formatStructuredData(nil))
}

func TestRecorderWritesLog(t *testing.T) {
	var buf bytes.Buffer
	recorder := NewRecorder(fixedLogger(&buf), nil, nil)

	recorder.Record(TreeEvent{Operation: "update", TreeID: 8, Success: true})

	assert.True(t, strings.Contains(buf.String(), "tree 8 updated"))
}

func TestNilRecorder(t *testing.T) {
	var recorder *Recorder
	assert.NotPanics(t, func() {
		recorder.Record(TreeEvent{Operation: "create"})
	})
}
