/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package service runs units (HTTP server, workers, clients with background goroutines)
// and stops them gracefully on OS signals or context cancellation.
package service
