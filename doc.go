/*
Package branchtale is a data-driven narrative state machine for branching text adventures.

A story is a directed graph of nodes. Each node shows a prompt and offers a set of keyed
choices; a choice leads to another node or ends the story inline with an outcome
(WIN, SURVIVE or LOSS). Input that matches no choice ends the story with INVALID_INPUT.
Because the graph must be acyclic, every playthrough terminates.

# Architecture

The package follows a hexagonal layout. The story graph, sessions and step results live in
pkg/domain. The pure transition function and the session-mutating engine live in
internal/runtime. Loaders (YAML/JSON file, Loam directory, in-memory) and transcript stores
(memory, file, Redis, SQLite) are adapters behind the interfaces in pkg/ports.

# Usage

	ctx := context.Background()
	eng, err := branchtale.New(ctx, "./stories/cave.yaml")
	if err != nil {
		log.Fatal(err) // includes every validation violation
	}

	sess, res, err := eng.Start(ctx, "player-1")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Text)

	for !res.IsTerminal() {
		line, _ := reader.ReadString('\n')
		if res, err = eng.Advance(ctx, sess, line); err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Text)
	}
	fmt.Println("Outcome:", res.Outcome)

For line-oriented hosts, pkg/runner drives a session against an io.Reader and io.Writer.
For many concurrent players, Engine.Sessions returns a session manager keyed by id.
*/
package branchtale
