package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSession_Text(t *testing.T) {
	out := &bytes.Buffer{}
	store := memory.NewStore()

	sess, err := RunSession(context.Background(), RunOptions{
		Stdin:     strings.NewReader("a\na\nb\n"),
		Stdout:    out,
		SessionID: "cli-test",
		Store:     store,
	})
	require.NoError(t, err)
	require.NotNil(t, sess.Result)
	assert.Equal(t, domain.OutcomeSurvive, sess.Result.Outcome)

	text := out.String()
	assert.Contains(t, text, "The Cave of Whispers")
	assert.Contains(t, text, "A) Enter the cave.")
	assert.Contains(t, text, "emerging from the cave unchanged")
	assert.Contains(t, text, ">>> Finished at 'crystal' node after 3 turn(s).")

	tr, err := store.Load(context.Background(), "cli-test")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A", "B"}, tr.Inputs)
}

func TestRunSession_JSON(t *testing.T) {
	out := &bytes.Buffer{}

	sess, err := RunSession(context.Background(), RunOptions{
		JSON:   true,
		Stdin:  strings.NewReader("\"x\"\n"),
		Stdout: out,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInvalidInput, sess.Result.Outcome)

	var events []runner.Event
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var ev runner.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 2)
	assert.Equal(t, runner.EventPrompt, events[0].Type)
	assert.Equal(t, runner.EventOutcome, events[1].Type)
	assert.Equal(t, "X", events[1].Key)
	assert.Equal(t, domain.OutcomeInvalidInput, events[1].Outcome)
}

func TestRunSession_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &bytes.Buffer{}
	_, err := RunSession(ctx, RunOptions{Stdin: strings.NewReader(""), Stdout: out})
	assert.NoError(t, err, "interruptions exit cleanly")
}

func TestExecute_WatchFlags(t *testing.T) {
	err := Execute(context.Background(), RunOptions{Watch: true, JSON: true})
	assert.ErrorContains(t, err, "cannot be used together")

	err = Execute(context.Background(), RunOptions{Watch: true})
	assert.ErrorContains(t, err, "needs a story path")
}
