package audit

import (
	"fmt"
	"strconv"
)

// TreeEvent records a create, update or delete of a tree.
type TreeEvent struct {
	Operation    string // create, update or delete
	TreeID       int64  // zero when the tree was never persisted
	RequestID    string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e TreeEvent) MessageID() string {
	return "tree-" + e.Operation
}

func (e TreeEvent) Message() string {
	subject := "tree"
	if e.TreeID != 0 {
		subject = fmt.Sprintf("tree %d", e.TreeID)
	}
	if e.Success {
		return fmt.Sprintf("%s %s", subject, pastTense(e.Operation))
	}
	msg := fmt.Sprintf("failed to %s %s", e.Operation, subject)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e TreeEvent) Severity() Severity {
	return severityFor(e.Success)
}

func (e TreeEvent) Facility() int {
	return FacilityLogAudit
}

func (e TreeEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDSubject: {},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
	if e.TreeID != 0 {
		sd[SDIDSubject]["tree"] = strconv.FormatInt(e.TreeID, 10)
	}
	if e.RequestID != "" {
		sd[SDIDClient]["request"] = e.RequestID
	}
	return sd
}

func pastTense(operation string) string {
	switch operation {
	case "create":
		return "created"
	case "update":
		return "updated"
	case "delete":
		return "deleted"
	case "remove":
		return "removed"
	default:
		return operation
	}
}

func severityFor(success bool) Severity {
	if success {
		return SeverityInfo
	}
	return SeverityWarning
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
