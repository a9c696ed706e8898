/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"fmt"
	"net"
	"time"
)

// GetLocalFreeTCPPort asks the OS for a free TCP port on 127.0.0.1. It panics on failure.
func GetLocalFreeTCPPort() int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port
}

// GetLocalAddrWithFreeTCPPort returns "127.0.0.1:<free port>".
func GetLocalAddrWithFreeTCPPort() string {
	return net.JoinHostPort("127.0.0.1", fmt.Sprint(GetLocalFreeTCPPort()))
}

// WaitListeningServer polls addr until it accepts TCP connections or the timeout elapses.
func WaitListeningServer(addr string, timeout time.Duration) error {
	const pollInterval = 10 * time.Millisecond
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	var lastErr error
	for {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			return conn.Close()
		}
		lastErr = err
		select {
		case <-timer.C:
			return fmt.Errorf("server on %s is not listening after %s: %w", addr, timeout, lastErr)
		case <-ticker.C:
		}
	}
}
