// Package logging sets up structured slog logging for rtfm.
//
// Logs are JSON lines written to a size-rotated file inside the cache
// directory (<cache-dir>/logs/rtfm.log). With --debug they are also teed to
// stderr. The MCP server never writes logs to stdout or stderr because stdout
// carries the JSON-RPC stream.
package logging
