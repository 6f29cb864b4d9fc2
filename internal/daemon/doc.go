// Package daemon coordinates the long-running storyline process.
//
// It wires configuration, the artifact store, and the pipeline service into a
// single lifecycle with flock-based locking to prevent multiple instances on
// the same data directory. The HTTP API exposes the collaborator operations
// (detail, validation, list, move-forward) plus idea submission, history, and
// an unauthenticated health endpoint.
//
// The CLI may write the same database directly while the daemon runs;
// concurrent move-forward calls are arbitrated by the store's guarded writes,
// not by anything held in this process.
package daemon
