// Package sanitizer normalizes user input before validation and storage.
//
// All functions are idempotent and never fail: unusable input collapses to
// the empty string or an empty slice, and validation decides what to reject.
//
// Normalization includes:
//   - Phone numbers: E.164, parsed against the Philippines first, then the US
//   - Emails: trimmed and lowercased
//   - Free text: whitespace collapsed, ends trimmed
//   - Tags (skills, neighborhoods): free-text normalized, deduplicated case-insensitively
package sanitizer
