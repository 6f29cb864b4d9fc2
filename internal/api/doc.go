// Package api defines wire-format types and the read/write facade served by
// the HTTP daemon and the direct CLI path. It translates artifact chains into
// transport-friendly DTOs so the CLI and dashboards can render them without
// coupling to store types.
//
// # Key Types
//
// DetailResponse: an idea with whichever downstream artifacts exist, its
// derived stage, and whether another move-forward is defined.
//
// ValidationResponse: the read-only pre-flight report for the current stage.
//
// MoveForwardResponse: the committed transition label and the id of the
// artifact that was created or published.
//
// ErrorResponse: machine-readable code plus per-check violations.
//
// # Converters
//
// FromChain: artifact.Chain + pipeline.Resolution -> DetailResponse.
//
// FromOutcome: transition.Outcome -> MoveForwardResponse.
//
// FromError: any error -> ErrorResponse with the pipeline taxonomy code.
//
// # Design Notes
//
// Field names are snake_case except canMoveForward and validationErrors,
// which dashboards already consume. Absent artifacts serialize as null so
// the shape of a detail payload never depends on the stage. Timestamps use
// RFC3339 with milliseconds in UTC. Stage is always derived per request and
// never read back from the client.
package api
