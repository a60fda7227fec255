// Package viz is a terminal live view of the simulated tracker built on
// Bubble Tea.
//
// The volume is drawn on a braille [Canvas] through a rotating perspective
// [Camera]; each sphere leaves a short trail and the selected sphere's axis
// history is plotted with asciigraph.
//
// # Key Bindings
//
//	Space - Pause/Resume sampling
//	Tab   - Select the next sphere
//	A     - Plot the next axis
//	R     - Clear history
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
