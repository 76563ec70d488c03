// Package api contains the HTTP handlers for the board API: authentication,
// swimlane and task operations, and the Server-Sent Events stream. Handlers
// decode and validate requests, delegate to the service layer, and map
// service errors to HTTP responses through HandleAPIError.
package api
