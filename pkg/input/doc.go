// Package input turns raw player text into the keys the engine matches on.
//
// Two steps happen, at different layers:
//
//  1. Sanitize runs at the I/O boundary (terminal, HTTP, websocket, MCP). Oversized
//     or malformed input is turned into absent input; anything else passes unchanged.
//  2. Normalize runs inside the engine. It trims surrounding whitespace and upper-folds
//     ASCII letters, nothing more: no prefix matching, no synonyms.
package input
