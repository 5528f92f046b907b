/*
Package dsl provides a fluent builder for constructing stories in Go code.

It is an alternative to YAML, JSON or Loam directories, handy for tests and for
stories generated at runtime.

Example usage:

	b := dsl.New("fork").InvalidText("You freeze.")

	b.Add("start").
		Prompt("A fork in the road.").
		On("L", "Go left.", "treasure").
		OnEnd("R", "Go right.", domain.OutcomeLoss, "A bear.")

	b.Add("treasure").
		Prompt("Gold!").
		Ending(domain.OutcomeWin)

	loader, err := b.Build()
	// ... pass loader to branchtale.New(ctx, "", branchtale.WithLoader(loader))
*/
package dsl
