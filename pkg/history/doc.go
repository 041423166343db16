// Package history models the browser location and history entry that table
// state is written to.
//
// Encoding table state into a URL is a pure operation (see package
// tablequery). Making the new URL visible is not: a browser has to call
// history.replaceState, a test wants to inspect the result, and a server
// driving a thin client has to queue a patch for it. History is the seam
// between the two.
//
//	h := history.NewMemory("https://app.example.com/users?tab=all")
//	h.Replace("https://app.example.com/users?tab=all&page=2")
//	h.Current() // "https://app.example.com/users?tab=all&page=2"
//	h.Len()     // 1, replace never grows the stack
//
// Navigator is the server-side implementation: it remembers the location
// the client reported and queues a URLPatch for every write.
package history
