// Package definition loads graphs described in YAML.
//
// A definition names its nodes, the step each one runs and how control leaves
// it. Steps and routers are looked up by name in a Catalog, so the YAML only
// ever refers to Go code registered up front:
//
//	name: mood
//	entry: node_1
//	nodes:
//	  - name: node_1
//	    step: append_text
//	    with: {field: graph_state, text: " I am"}
//	    route:
//	      router: random
//	      with: {choices: [node_2, node_3]}
//	  - name: node_2
//	    step: append_text
//	    with: {field: graph_state, text: " happy!"}
//	    next: END
package definition
