package controller

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogCapture(t *testing.T) {
	lc := newLogCapture()
	fmt.Fprintln(lc.stdoutWriter, "Listening on :65432")
	fmt.Fprintln(lc.stderrWriter, "warning: slow disk")
	lc.close()

	logs := lc.logs()
	assert.Equal(t, "Listening on :65432\n", logs.Stdout)
	assert.Equal(t, "warning: slow disk\n", logs.Stderr)
	assert.Equal(t, "=== STDOUT ===\nListening on :65432\n\n=== STDERR ===\nwarning: slow disk\n", logs.Combined)
}

func TestLogCapture_Empty(t *testing.T) {
	lc := newLogCapture()
	lc.close()
	assert.Equal(t, Logs{}, lc.logs())
}
