/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-docgate/log"
)

func TestRecorder(t *testing.T) {
	recorder := NewRecorder()
	recorder.Info("window reset", log.Int("limit", 3))
	recorder.With(log.String("doc_id", "42")).Warn("submission failed")
	recorder.WithLevel(log.LevelError).Info("dropped")

	entries := recorder.Entries()
	require.Len(t, entries, 2)

	entry, found := recorder.FindEntry("window reset")
	require.True(t, found)
	require.Equal(t, log.LevelInfo, entry.Level)
	field, found := entry.FindField("limit")
	require.True(t, found)
	require.Equal(t, 3, int(field.Int))

	entry, found = recorder.FindEntry("submission failed")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, entry.Level)
	field, found = entry.FindField("doc_id")
	require.True(t, found)
	require.Equal(t, "42", string(field.Bytes))

	_, found = recorder.FindEntry("dropped")
	require.False(t, found)

	recorder.Infof("response completed in %.3fs", 0.25)
	require.Len(t, recorder.FindEntriesWithPrefix("response completed in"), 1)

	recorder.Reset()
	require.Empty(t, recorder.Entries())
}

func TestNewLoggerWithOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(&buf)
	logger.Infof("admitted %d callers", 2)
	require.Contains(t, buf.String(), `"msg":"admitted 2 callers"`)
}
