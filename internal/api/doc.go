/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package api contains REST API handlers of the docgate service.
package api
