package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/simd_mandel"
)

// renderReadLimit bounds the size of one incoming render request.
const renderReadLimit = 64 << 10

// webServer serves streaming render sessions on /ws and irpc connections on /irpc.
// The returned listener yields the /irpc connections.
func webServer(ctx context.Context, addr string, rs *renderScheduler) (net.Listener, *http.Server) {
	l := newWebsocketListener(ctx, addr+"/irpc")
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(rs, l),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return l, srv
}

func newMux(rs *renderScheduler, l *websocketListener) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", websocketHandler(rs))
	mux.HandleFunc("/irpc", irpcHandler(l))
	return mux
}

// websocketHandler runs one render session per connection.
// The client sends RenderRequests and receives PixelBatches until the last one has Done set.
func websocketHandler(rs *renderScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // TODO: tighten in prod
		})
		if err != nil {
			log.Println(err)
			return
		}
		defer c.CloseNow()
		c.SetReadLimit(renderReadLimit)

		ctx := r.Context()
		log.Printf("got connection from: %s", r.RemoteAddr)
		for {
			var req mandel.RenderRequest
			if err := wsjson.Read(ctx, c, &req); err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					log.Printf("read request from %s: %v", r.RemoteAddr, err)
				}
				return
			}

			if err := rs.render(ctx, c, req); err != nil {
				log.Printf("render for %s failed: %v", r.RemoteAddr, err)
				if !errors.Is(err, mandel.ErrInvalidParameter) {
					return
				}
				// a bad request ends the render, not the session
				if err := wsjson.Write(ctx, c, mandel.PixelBatch{Done: true, Error: err.Error()}); err != nil {
					return
				}
			}
		}
	}
}
