// Package process stops the headless Chrome that prints teletext PDFs,
// together with the renderer and GPU helpers it spawns, so a one-shot run
// leaves no browser behind.
package process
