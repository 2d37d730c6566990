// Package ecode builds the short human-readable messages used in task results
// and validation errors, e.g. "email invalid" or "Task failed".
//
// Messages are plain strings so they can be persisted verbatim into a task
// record's result attribute.
package ecode
