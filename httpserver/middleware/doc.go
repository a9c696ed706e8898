/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package middleware contains HTTP middlewares (request id, logging, recovery, request metrics)
// used by the docgate HTTP server.
package middleware
