// Package api exposes bench runs over HTTP.
//
// Endpoints:
//
//	GET  /api/status   current run state
//	GET  /api/presets  available bench presets
//	POST /api/run      start a bench ({"preset","target","elements","threads","runs"})
//	POST /api/stop     cancel the active bench
//	GET  /api/result   last result (or the running placeholder)
//	GET  /metrics      Prometheus metrics for every pool the server created
//	     /ws           websocket stream of bench events
//
// Only one bench runs at a time; POST /api/run answers 409 while one is active.
package api
