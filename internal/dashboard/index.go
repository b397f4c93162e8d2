package dashboard

import (
	_ "embed"
	"net/http"
)

// indexHTML is the operator console: a chat pane on the live router's
// websocket and a sidebar polling the stats and recent endpoints.
//
//go:embed index.html
var indexHTML []byte

// ServeIndex serves the operator console page. It is never cached so a
// redeploy is picked up on the next reload.
func (d *Dashboard) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(indexHTML)
}
