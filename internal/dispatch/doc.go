// Package dispatch turns Discord interactions into engine calls.
//
// A Dispatcher decodes the slash command, button press or autocomplete
// request, runs it against the engine for the interaction's guild, and
// renders the outcome as an interaction response:
//
//   - /nominate, /vote, /watch, /here post to the channel
//   - /peek, /naughty, /history and user errors reply privately (ephemeral)
//   - the "Register Attendance" button behaves like /here
//   - the "Publically Shame" button posts the /naughty list to the channel
//
// Commands that lose a race with a concurrent request are re-run from the
// start, up to a configurable number of times.
//
// The package is transport-agnostic. See package webhook for the HTTP
// endpoint that verifies and decodes requests.
package dispatch
