package audit

import (
	"fmt"
	"strconv"
)

// BranchEvent records a change to a branch: create, update, remove (from
// its tree's collection) or delete (directly by id).
type BranchEvent struct {
	Operation    string
	TreeID       int64
	BranchID     int64
	RequestID    string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e BranchEvent) MessageID() string {
	return "branch-" + e.Operation
}

func (e BranchEvent) Message() string {
	subject := "branch"
	if e.BranchID != 0 {
		subject = fmt.Sprintf("branch %d", e.BranchID)
	}
	if e.TreeID != 0 {
		subject += fmt.Sprintf(" of tree %d", e.TreeID)
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

func (e BranchEvent) Severity() Severity {
	return severityFor(e.Success)
}

func (e BranchEvent) Facility() int {
	return FacilityLogAudit
}

func (e BranchEvent) StructuredData() map[string]map[string]string {
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
	if e.BranchID != 0 {
		sd[SDIDSubject]["branch"] = strconv.FormatInt(e.BranchID, 10)
	}
	if e.RequestID != "" {
		sd[SDIDClient]["request"] = e.RequestID
	}
	return sd
}
