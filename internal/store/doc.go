// Package store persists avatarstudio state in SQLite.
//
// It keeps exactly one durable project record under a fixed namespace, a
// history of submitted generation jobs, and a schema version row. Job
// history is informational: nothing here ever restores a generation status
// into the live project. The package also provides the file lock that keeps
// two processes from running generations against the same data directory.
package store
