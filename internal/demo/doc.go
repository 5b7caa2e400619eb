// Package demo implements the guest experience for unauthenticated
// visitors: a locally persisted starter workout plan and a synthetic
// rolling 7-day progress history.
//
// Everything here is pure local computation and storage under its own
// namespace; nothing reaches the network or the session subsystem.
// Failures are programming errors, not recoverable conditions.
package demo
