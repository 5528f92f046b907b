/*
Package ports defines the driven ports (interfaces) for the branchtale engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to read stories from various sources and archive finished playthroughs
in various backends.

# Key Interfaces

  - StoryLoader: Loads a complete story graph (e.g., from a YAML file, Loam or Memory).
  - Watchable: Signals that the story source changed and should be reloaded.
  - TranscriptStore: Archives transcripts of finished sessions.
  - SessionService: Drives concurrent sessions; consumed by the HTTP and MCP adapters.
*/
package ports
