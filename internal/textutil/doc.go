// Package textutil normalizes the identifiers and names that arrive from the
// upstream schedule sources.
//
// Group codes are folded to a single canonical form (half-width digits, ASCII
// hyphen, upper case) so the same group scraped from the website and returned
// by the API lands on the same cache row. Faculty names are compared through
// token fingerprints so a scraped faculty can be matched back to the code the
// API uses for it.
package textutil
