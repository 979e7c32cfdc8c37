// Package webhook serves the Discord interactions endpoint.
//
// Discord signs every request with the application's Ed25519 key. The
// handler rejects requests whose X-Signature-Ed25519 header does not verify
// over X-Signature-Timestamp followed by the raw body, then decodes the
// interaction, hands it to a dispatch.Dispatcher and writes the response as
// JSON.
package webhook
