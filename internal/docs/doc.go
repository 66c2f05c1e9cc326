// Package docs generates and serves the OpenAPI 3.0 description of the
// report API at GET /apidocs.
//
// The document is built from the active configuration — one path per
// configured report plus the operational endpoints — and regenerated on
// config reload, so it always matches the routes the api package
// actually serves.
package docs
