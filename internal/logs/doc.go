// Package logs reads back the JSON log file written by internal/logging.
//
// Tail returns the last N matching entries and an offset that a follow loop
// passes to the next call. Lines that are not JSON objects are kept as bare
// messages so a corrupted or hand-edited file still renders.
package logs
