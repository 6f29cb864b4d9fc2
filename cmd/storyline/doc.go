// Package main hosts the Storyline CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon (`storyline serve`), drives
// ideas through the pipeline over the daemon's HTTP API, edits artifact fields
// directly in the database, and scaffolds configuration. Idea commands fall
// back to in-process store access when the daemon is not reachable.
//
// Keep this package lean: add behaviour to the internal packages first, then
// surface it through a command or flag here.
package main
