// Package terminal shows the grid view in a terminal using tcell.
//
// Each grid cell is drawn two columns wide. Mouse buttons edit the grid the
// same way they do on the canvas page: left toggles a wall, middle moves the
// start and right moves the end. Keys change the size and step delay.
//
//	screen, _ := tcell.NewScreen()
//	screen.Init()
//	defer screen.Fini()
//	app := terminal.New(screen, view, terminal.Options{})
//	err := app.Run(ctx)
//
// When a solve finishes the optional Chime plays a short tone.
package terminal
