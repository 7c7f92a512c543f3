// Package smartdesk embeds the SmartDesk ticket triage engine in a Go program.
//
// A ticket is matched against a small knowledge base by semantic similarity.
// When nothing is close enough, keyword rules handle plan upgrades and billing
// questions; everything else is escalated to a human.
//
//	client, _ := smartdesk.New(ctx) // in-memory store, TF-IDF embedder, built-in knowledge base
//	defer client.Close()
//
//	res, _ := client.Triage(ctx, smartdesk.Ticket{
//	    UserID: "user123",
//	    Title:  "Forgot my password",
//	})
//	fmt.Println(res.Status, res.Draft)
//
// Persistent storage and a remote embedding model are opt-in:
//
//	client, _ := smartdesk.New(ctx,
//	    smartdesk.WithValkey("localhost:6379"),
//	    smartdesk.WithCredentials("", os.Getenv("VALKEY_PASSWORD")),
//	    smartdesk.WithEmbedder(myEmbedder),
//	    smartdesk.WithKnowledge(entries...),
//	)
package smartdesk
