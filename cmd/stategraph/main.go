// Command stategraph runs state graphs from the command line: one-shot
// invocations, an interactive chat, thread inspection, and HTTP or MCP servers.
package main

func main() {
	Execute()
}
