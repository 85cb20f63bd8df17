// Package ui implements an interactive terminal progress view using bubbletea's Elm architecture.
//
// The TUI renders a live checklist of pipeline phases while a full run executes:
// completed phases show a check mark, the active phase shows a spinner with a
// progress bar for stepwise stages, and the final view summarizes record counts.
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the pipeline Engine, providing
// non-blocking status reporting while requests are in flight.
package ui
