/*
Package runner implements an interactive chat loop over a compiled graph.

Each line read from the IOHandler becomes one invocation on a thread: plain text
is appended as a human message, a JSON object is merged into the state as-is.
The messages produced by the turn are handed back to the handler for display.

# Key Components

  - Runner: the read, invoke, print loop with signal and timeout handling.
  - IOHandler: decouples how turns are read and displayed.
  - TextHandler: interactive terminal usage, with optional markdown rendering.
  - JSONHandler: newline-delimited JSON for scripted or piped usage.
  - ToolInterceptor: policy applied before a tool node executes a call.

# Usage

	r := runner.New(sessions,
		runner.WithThreadID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
