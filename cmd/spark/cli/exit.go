// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError sets a non-zero exit code for a command that has already
// written its own output, so main prints nothing further.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
