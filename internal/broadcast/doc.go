// Package broadcast implements the WebSocket fan-out hub using the actor
// pattern.
//
// The Hub holds this instance's single subscription on the broadcast channel
// and fans each payload out to all connected WebSocket viewers. Uses a single
// goroutine + command channel (no mutexes). Per-connection write goroutines
// handle slow clients gracefully.
package broadcast
