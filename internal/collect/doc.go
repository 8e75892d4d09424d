// Package collect reconciles the move table with the video table: it finds
// moves without clips, downloads linked clips, renames files to their
// canonical embed names, and fills the thumbnail column.
//
// Downloads run serially with a skip-and-record policy. A row that fails is
// logged, recorded in the ledger and reported; the remaining rows proceed.
// Rows the ledger already marks as found are not fetched again.
package collect
