// Package errors provides coded, actionable errors for the tablequery CLI,
// server and configuration loader.
//
// Every error has a code (e.g. "T100") registered with a category, a short
// message and a longer explanation. Call sites add what is specific to the
// failure:
//
//	err := errors.New("T100").
//	    WithInput(raw).
//	    WithSuggestion("Pass an absolute URL such as https://app.example.com/users").
//	    Wrap(parseErr)
//
//	errors.PrintError(err)    // coloured block on stderr
//	err.FormatJSON()          // {"code":"T100","category":"input",...}
//	err.HTTPStatus()          // 400
//
// # Categories
//
//   - input: a URL, params document or flag value supplied by the caller
//   - config: tablequery.json problems
//   - server: listener and shutdown failures
//   - protocol: malformed live-channel messages
//
// The codec itself never returns these errors; it recovers silently from
// malformed query strings. They exist for the edges around it.
package errors
