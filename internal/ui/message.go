package ui

import (
	"github.com/desertthunder/slx/internal/flow"
)

type progressUpdateMsg flow.ProgressUpdate

type runCompleteMsg struct {
	result *flow.RunResult
	err    error
}
