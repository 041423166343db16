// Package clientdist embeds the browser client for the live channel.
package clientdist

import _ "embed"

// TableQueryJS is the thin client that connects a page to /ws and applies
// URL patches with history.replaceState.
//
// It is served by the server at "/client.js".
//go:embed tablequery.js
var TableQueryJS []byte
