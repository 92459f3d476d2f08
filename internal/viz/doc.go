// Package viz renders simulation output for the terminal.
//
//   - [Canvas]: Braille pixel canvas, used for phase portraits
//   - [Chart]: asciigraph line charts of measure series and spectra
//   - [ProgressModel]: Bubble Tea view of a running parameter sweep
//
// Styles are lipgloss; nothing here writes to stdout directly.
package viz
