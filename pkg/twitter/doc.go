// Package twitter provides a client for the X/Twitter GraphQL web API.
//
// This package includes:
//   - A configurable HTTP client carrying session headers, request pacing
//     and retry on transient failures
//   - Account resolution (screen name to stable user id)
//   - Cursor-based pagination over an account's media timeline, with media
//     references extracted from both flat and module-nested entries and
//     video variants resolved to the highest-bitrate MP4 rendition
//   - Typed errors separating fatal conditions (auth, protocol) from
//     retryable ones (network, server, rate limit)
package twitter
