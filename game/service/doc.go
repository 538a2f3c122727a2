// Package service owns the single grid view shared by every front-end.
//
// A view is a grid.State, a raster renderer and an orchestrator all driven by
// one UI loop goroutine. Every ViewService method hops onto that loop, so the
// HTTP, WebSocket, MCP and terminal layers can call it concurrently without
// any locking of their own.
//
// Usage:
//
//	svc, err := service.NewViewService(ctx, service.Options{
//		Settings: config.DefaultSettings(),
//		Presets:  presetMgr,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer svc.Close()
//
//	// Right-click at the canvas centre moves the start
//	res, err := svc.Pointer(ctx, service.PointerInput{
//		Button:  2,
//		ClientX: 300,
//		ClientY: 300,
//		Rect:    grid.Rect{Width: 600, Height: 600},
//	})
//
// Subscribers receive an Event after every draw, including each revealed path
// step. Callbacks run on the UI loop and must not block.
package service
