// Package preflight provides readiness checks for the input tables, artifact
// directories and external tools datapipe depends on.
//
// These checks run in two contexts:
//   - Pipeline commands call RunAll with the scope they need and abort on Err
//     before writing anything.
//   - The CLI "datapipe deps" command uses CheckSystemDeps to display tool
//     health.
package preflight
