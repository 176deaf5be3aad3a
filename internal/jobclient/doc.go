// Package jobclient talks to the remote avatar video generation service.
//
// Client wraps the REST API: a liveness probe, multipart job submission,
// status queries, full resource fetch, and deletion. Poll runs the single
// cooperative status loop for one job; the caller's context is its
// cancellation token. MapStatus translates the remote pending/processing/
// completed/failed vocabulary and numeric progress into local stages.
//
// Failures are typed so callers can present them differently:
// LivenessError (service unreachable, nothing submitted), SubmissionError
// (server rejected the job; Detail is shown verbatim), and PollError (status
// query failed). None are retried.
package jobclient
