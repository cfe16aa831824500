// Package statusfeed serves live playback events over WebSocket.
//
// Clients connect to /ws, optionally filtered to one guild with ?guild=<id>.
// Every event is a google.protobuf.Struct:
//
//	{
//	  "kind":     "now_playing",       // queued, now_playing, finished, stopped, disconnected
//	  "guild_id": "123",
//	  "at":       "2026-10-19T12:00:00Z",
//	  "track": {                        // absent for stopped/disconnected
//	    "id": "...", "title": "...", "webpage_url": "...",
//	    "duration_seconds": 212, "requester_id": "..."
//	  }
//	}
//
// By default frames are binary protobuf; ?format=json sends protojson text
// frames instead. /healthz answers "ok".
//
// Keep-alive mirrors a long-lived client connection: the server pings every
// pingPeriod and drops clients that miss pongs for pongWait. Writes to one
// connection are serialized and carry a write deadline. A client that cannot
// keep up loses events rather than slowing the player down.
//
// Example:
//
//	hub := statusfeed.NewHub(log)
//	svc := music.NewService(conn, res, opener, music.WithPublisher(hub))
//	go hub.ListenAndServe(ctx, ":8080")
package statusfeed
