// Package ledger persists download attempts in SQLite so collection runs can
// skip rows that already succeeded and report the ones that failed.
//
// Each attempt records the move id, name, link, outcome, resulting file and
// error text. The latest attempt per move decides its status.
package ledger
