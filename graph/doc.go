// Package graph provides a small typed state graph used to drive agent
// turns.
//
// A StateGraph holds named nodes that transform a state value of type S.
// Static edges and conditional edges decide which node runs next; execution
// ends when a node routes to END. Execution is sequential and bounded by a
// step limit.
//
//	g := graph.NewStateGraph[*turn]()
//	g.AddNode("model", "Call the model", callModel)
//	g.AddNode("tools", "Run requested tools", runTools)
//	g.SetEntryPoint("model")
//	g.AddConditionalEdge("model", func(ctx context.Context, t *turn) string {
//		if t.hasToolCalls() {
//			return "tools"
//		}
//		return graph.END
//	})
//	g.AddEdge("tools", "model")
//
//	runnable, err := g.Compile()
//	final, err := runnable.Invoke(ctx, &turn{})
package graph
