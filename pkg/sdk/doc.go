// Package gamedex embeds the gamedex search engine in a Go program.
//
// The client wires the same engine the HTTP server runs: intent detection,
// concurrent sub-queries against the catalog proxy, relevance filtering,
// content authorization and a two-tier cache backed by Valkey, Redis,
// Postgres or an embedded Badger database.
//
//	client, _ := gamedex.New(ctx,
//	    gamedex.WithValkey("localhost:6379", ""),
//	    gamedex.WithCatalog("https://proxy.example.com/igdb", clientID, token),
//	)
//	defer client.Close()
//
//	games, _ := client.SearchGames(ctx, "zelda", 15)
//
//	res, _ := client.Search(ctx, "pokemon red", gamedex.SearchLimit(10), gamedex.SearchSisterTitles())
//	fmt.Println(res.Outcome, res.Cache)
package gamedex
