// Package render paints grid snapshots.
//
// Renderer is surface agnostic. RasterSurface backs it with an in-memory
// image for PNG frames; the desktop window and the terminal front-end
// provide surfaces of their own.
package render
