// Package async runs groups of goroutines without letting a panic in
// one of them take the process down.
//
// # Overview
//
// A Group collects named tasks started with Go. Panics are recovered
// and converted to errors; all task errors funnel into one buffered
// channel so the owner can react to the first failure while the rest
// keep running. Wait returns a channel closed once every started task
// has returned, which composes with select-based shutdown logic.
package async
