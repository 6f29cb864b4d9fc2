// Package preflight provides readiness checks for the filesystem paths,
// database, and daemon API that storyline depends on.
//
// These checks run in two contexts:
//   - `storyline serve` calls RunAll before taking the daemon lock and refuses
//     to start when a required check fails.
//   - The CLI "storyline doctor" command renders every check, including the
//     daemon reachability check, as a table.
package preflight
