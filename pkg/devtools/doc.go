// Package devtools serves a live view of a reactive runtime over HTTP.
//
// A Server registers itself as an observer of the runtime and exposes:
//
//	GET /healthz        liveness probe
//	GET /graph          JSON GraphStats for the runtime
//	GET /events/recent  JSON array of the buffered recent events
//	GET /events         websocket feed of events, recent ones replayed first
//	GET /metrics        Prometheus exposition for the configured gatherer
//
// Usage:
//
//	rt := reactive.NewRuntime()
//	dt := devtools.New(rt, devtools.WithEventBuffer(512))
//	defer dt.Close()
//	go dt.ListenAndServe(ctx, "localhost:7070")
//
// The server is observational. Nothing received from a client changes
// reactive state.
package devtools
