// Package validator checks a story graph before any session may start.
//
// Fatal violations (dangling targets, cycles, missing endings, duplicate keys) block
// play. Warnings (unreachable nodes, missing invalid-input text) are reported but do
// not. Validation runs once per load; the engine assumes a validated graph afterwards.
package validator
