/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides log.FieldLogger implementations for tests:
// a Recorder that keeps every entry in memory for assertions and a simple JSON logger.
package logtest
