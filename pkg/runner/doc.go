/*
Package runner drives a single playthrough over line-oriented I/O.

It is the bridge between the engine and the outside world: it emits a prompt,
reads a line, sanitizes it, applies one step and repeats until the story ends.
End of input and per-turn timeouts count as empty input, which the engine
resolves as INVALID_INPUT.

# Key Components

  - Runner: plays one session and optionally archives its transcript.
  - IOHandler: a LineSource plus a LineSink, decoupling the loop from the medium.
  - TextHandler: interactive terminal play, with an optional markdown renderer.
  - JSONHandler: NDJSON events for headless hosts.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(engine),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithStore(store),
	)

	sess, err := r.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(sess.Result.Outcome)
*/
package runner
