/*
Package dsl provides the graph builder.

A graph is a set of named steps linked by unconditional edges and routers.
Every definition problem (duplicate names, unknown endpoints, a second route
from the same node, unreachable nodes or an unreachable END) is reported by
the builder before anything executes.

Example usage:

	b := dsl.New(dsl.WithSchema(domain.MessagesSchema()))

	_ = b.AddNode("assistant", assistant)
	_ = b.AddNode("tools", prebuilt.NewToolNode(reg))
	_ = b.AddEdge(domain.START, "assistant")
	_ = b.AddConditionalEdges("assistant", prebuilt.ToolsCondition, prebuilt.ToolsTargets()...)
	_ = b.AddEdge("tools", "assistant")

	graph, err := b.Build()

The same graph with the fluent API:

	b.Node("assistant", assistant).Entry().Route(prebuilt.ToolsCondition, "tools")
	b.Node("tools", prebuilt.NewToolNode(reg)).To("assistant")
*/
package dsl
