// Package preflight provides readiness checks for the external tools
// and filesystem paths that printlapse depends on.
//
// These checks run in two contexts:
//   - The run command calls RunAll before starting the watcher. If any
//     check fails, startup aborts instead of failing hours into a print.
//   - The CLI "printlapse status" command uses the individual check
//     functions to display tool and path health.
package preflight
