// Package prebuilt implements the tool-use pattern on top of the engine:
// a model node that may request tool calls, a router that sends those
// requests to the tool node, and the tool node that answers them.
//
//	b.Node("assistant", prebuilt.NewModelNode(model, prebuilt.WithTools(reg))).
//		Entry().Route(prebuilt.ToolsCondition, prebuilt.ToolsTargets()...)
//	b.Node("tools", prebuilt.NewToolNode(reg)).To("assistant")
//
// Agent builds exactly that graph.
package prebuilt
