/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package httpserver provides the HTTP server of the gateway: a chi router with
// the default middlewares, Prometheus and health-check endpoints, and the API routes.
// HTTPServer implements service.Unit, so it can be run by service.Service.
package httpserver
