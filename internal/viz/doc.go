// Package viz renders spring runs for the terminal: asciigraph charts of a
// trajectory, braille strips for trails and staggers, and the lipgloss
// styles shared with the live preview.
//
//   - [Chart] and [ChartMany]: trajectories over frames
//   - [Canvas]: braille pixel canvas, 2x4 dots per cell
//   - [Strip]: positions of several values on one line
//   - [DelayTable]: stagger delays as bars
//
// Five color themes are built in; see [Themes].
package viz
