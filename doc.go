// Package gremlin implements a client for the Gremlin wire protocol spoken
// by TinkerPop-compatible graph servers.
//
// A Client submits Groovy scripts (Execute) or serialized traversal programs
// (Submit) over a pool of connections and returns typed values. Three wire
// formats are supported: GraphBinary v1 and GraphSON v2/v3. The format is
// fixed per client at connect time.
//
//	opts := gremlin.DefaultOptions()
//	client, err := gremlin.Dial(opts)
//	if err != nil {
//		...
//	}
//	defer client.Close()
//
//	results, err := client.Execute("g.V().count()", nil)
//
// Traversals are built as Bytecode and submitted directly:
//
//	t := gremlin.Traversal().V().Step("hasLabel", gremlin.String("person"))
//	results, err := client.Submit(t.Bytecode())
//
// Authentication challenges (status 407) are answered transparently when
// credentials are configured. Sessions pin a single connection server-side;
// see Client.CreateSession.
package gremlin
