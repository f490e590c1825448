/*
Package session implements the Session Controller and session management.

A Controller bridges one user's Navigator and the Match Engine: it owns the pantry,
remembers the last successful search, and cross-checks a reached recommendation
against the real catalog on request.

The Manager keeps live controllers per session ID, persists their snapshots through a
ports.SessionStore and rehydrates sessions created by other replicas, coordinating
access with an optional distributed lock.
*/
package session
