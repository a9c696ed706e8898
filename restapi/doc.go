/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package restapi contains helpers for decoding JSON requests and writing JSON responses and errors.
package restapi
