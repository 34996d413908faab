// Package sources defines the DataSource contract shared by the upstream
// schedule providers and the failure taxonomy they report through.
//
// Implementations live in the primary (JSON API) and fallback (HTML scraping)
// subpackages. Every fetch returns a result.Envelope: transport, status, and
// parse problems are classified into one of the codes below instead of
// surfacing as panics or raw errors.
package sources
