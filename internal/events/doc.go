// Package events carries review-session notifications from the session
// engine to whoever presents the session.
//
// The engine emits a SessionEvent after every successful transition without
// knowing which handlers will receive it. The primary components are:
// - SessionEvent: a snapshot of the session's position after a transition
// - EventHandler: interface for components that consume events
// - EventEmitter: interface for components that publish events
package events
