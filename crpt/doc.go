/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package crpt provides a client for the CRPT "create document" API.
// Every submission is admitted by a fixed-window limiter (see windowlimit package) before the HTTP call is made.
package crpt
