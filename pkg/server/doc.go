// Package server exposes the table state codec over HTTP and a WebSocket
// live channel.
//
// # HTTP API
//
//	GET  /healthz          liveness probe
//	GET  /api/state        decode the request's own query string
//	POST /api/encode       {"url", "params"}      -> {"url"}
//	POST /api/select-all   {"url", "value"}       -> {"url"}
//	POST /api/reconcile    {"url"|"filters", "available"} -> {"filters"}
//	GET  /metrics          Prometheus metrics (when enabled)
//	GET  /client.js        browser client for the live channel
//
// Errors are returned as the JSON form of a coded error with a 4xx or 5xx
// status.
//
// # Live Channel
//
// GET /ws?url=<current location> upgrades to a WebSocket carrying JSON text
// frames. The server owns the table state for that browser tab: on connect it
// sends
//
//	{"type":"init","url":"...","state":{...}}
//
// and then accepts
//
//	{"type":"push","params":{...}}       write table state
//	{"type":"selectAll","value":true}    set or clear the select-all flag
//	{"type":"location","url":"..."}      the browser navigated on its own
//
// Writes are answered with a patch the client applies via
// history.replaceState:
//
//	{"type":"url","mode":"replace","url":"..."}
//
// A location message is answered with the decoded state. Failures produce
// {"type":"error","error":{...}} and leave the session open.
//
// # Usage
//
//	srv := server.New(server.DefaultConfig(),
//	    server.WithLogger(logger),
//	    server.WithCodecOptions(tablequery.WithDefaults(25, 1)),
//	)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
