// Package audit provides audit logging for changes to the tree aggregate.
//
// Every mutation (tree create/update/delete, branch create/update/remove/
// delete) produces an Event. A Recorder writes events as RFC5424 syslog lines
// and can also persist them to the audit_messages table.
//
// # Usage
//
//	recorder := audit.NewRecorder(audit.NewLogger(os.Stdout), nil, log)
//	recorder.Record(audit.TreeEvent{Operation: "create", TreeID: 7, Success: true})
package audit
