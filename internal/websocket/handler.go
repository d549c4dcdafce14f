package websocket

import (
	"net/http"
	"strings"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the request and runs it as a hub client. The
// optional ?child= query narrows the stream to one child.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // household LAN dashboards
		})
		if err != nil {
			hub.logger.Warn("websocket accept failed", "error", err, "remote", r.RemoteAddr)
			return
		}

		child := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("child")))
		hub.logger.Debug("websocket client connected", "remote", r.RemoteAddr, "child", child)
		NewClient(hub, conn, child).Run(r.Context())
	}
}
