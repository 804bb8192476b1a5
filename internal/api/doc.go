// Package api provides the HTTP client for the remote TP analysis service.
//
// The service exposes three operations over HTTPS: /check (lint diagnostics),
// /format (source reformatting), and /compliance (rule-set conformance).
// Request bodies are the raw program text; responses are either a JSON
// diagnostic payload or plain formatted text depending on the endpoint.
//
// Every call returns either a usable result or a classified *Error. The
// classification separates three independent questions:
//
//   - Did the transport produce an HTTP response at all? If not, the failure
//     is KindAborted (local cancellation or timeout) or KindNetwork.
//   - Was the status acceptable? Non-2xx statuses map to KindRateLimited,
//     KindServer, KindClient, or KindInvalidResponse.
//   - Was the body usable? Unparseable or unexpectedly-encoded bodies map to
//     KindInvalidResponse.
//
// Whether an error is worth retrying is a pure function of its kind; see
// (Kind).Retriable.
//
// Diagnostic payloads are structurally validated before being trusted.
// Validation fails open: a batch containing any malformed entry is replaced
// by an empty batch rather than surfaced as an error, so a misbehaving
// server cannot crash the consumer pipeline.
package api
