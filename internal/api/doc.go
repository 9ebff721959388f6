// Package api exposes collections and review sessions over HTTP.
//
// Handlers load a fresh tree for every request, apply one change through
// the services and reply with JSON. Review sessions are kept in memory by a
// SessionRegistry; each session is serialised by its own mutex.
//
// Errors are translated by MapErrorToStatusCode and GetSafeErrorMessage so
// internal details never reach clients.
package api
