/*
Package domain contains the core domain models of the branchtale engine.

It defines the narrative graph (Story, Node, Choice, Outcome), the per-playthrough
Session and the StepResult values produced by the interpreter. This package is kept
pure and free of external dependencies like I/O or persistence.

# Key Entities

  - Story: an immutable graph of nodes plus a designated start node.
  - Node: one narrative beat with a prompt and zero or more choices. A node without
    choices is terminal and carries an ending tag.
  - Choice: a case-insensitive key leading either to another node or to an inline Outcome.
  - Session: the position and history of one playthrough.
  - StepResult: either Advance (new node) or Terminal (outcome tag plus closing text).
*/
package domain
