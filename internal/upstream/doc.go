// Package upstream is the HTTP client for the external API that report
// data is fetched from.
//
// New(cfg) builds a Client with the configured timeout and auth mode
// (bearer token or API key header, resolved from the environment).
// Fetch performs one GET per call and decodes the JSON body into an
// untyped value for the mapper to walk.
//
// Failures are classified into three kinds — unavailable, bad status,
// malformed — which the api package translates into 503 or 502. No
// retries are performed; one inbound request costs exactly one upstream
// attempt.
package upstream
