// Package api defines the wire format of the timetabled HTTP API and a
// client for it.
//
// # Wire format
//
// Every data endpoint answers with a result.Envelope encoded as JSON:
//
//	{"state": "success", "value": [...]}
//	{"state": "error", "message": "no data yet", "code": "no_data"}
//	{"state": "loading"}
//
// List endpoints return the final envelope of the facade stream, so a
// request that triggered a sync waits for that sync. The HTTP status mirrors
// the envelope (see HTTPStatus) but clients should read the envelope.
//
// # Client
//
// Client wraps the endpoints with typed methods. Transport failures and
// non-envelope responses are returned as Go errors; envelope errors are
// returned as envelopes, exactly as the in-process facade would.
package api
