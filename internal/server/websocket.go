package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"

	"github.com/conneroisu/nucleator/internal/compiler"
	"github.com/conneroisu/nucleator/internal/interpolate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer.
	readWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than readWait.
	pingPeriod = (readWait * 9) / 10

	// Maximum message size allowed from peer. Editor sources are small;
	// this bounds pathological inputs.
	maxMessageSize = 1 << 20
)

// CompileRequest is what the editor sends over the websocket.
type CompileRequest struct {
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Style  string         `json:"style"`
	Title  string         `json:"title,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// UpdateMessage is what the server pushes to the browser.
type UpdateMessage struct {
	Type      string    `json:"type"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin already validated above
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	go client.writePump()
	go client.readPump()

	s.register <- client
}

// checkOrigin validates the request origin before the upgrade.
func (s *PreviewServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}

	allowed := []string{
		fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		fmt.Sprintf("localhost:%d", s.config.Server.Port),
		fmt.Sprintf("127.0.0.1:%d", s.config.Server.Port),
	}
	allowed = append(allowed, s.config.Server.AllowedOrigins...)

	for _, host := range allowed {
		if originURL.Host == host {
			return true
		}
	}
	return false
}

func (s *PreviewServer) runHub(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-s.register:
			s.clientsMutex.Lock()
			s.clients[client.conn] = client
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "client connected", "total", count)

		case conn := <-s.unregister:
			s.clientsMutex.Lock()
			if client, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				close(client.send)
				conn.Close(websocket.StatusNormalClosure, "")
			}
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "client disconnected", "total", count)

		case message := <-s.broadcast:
			s.clientsMutex.RLock()
			var stalled []*websocket.Conn
			for conn, client := range s.clients {
				select {
				case client.send <- message:
				default:
					stalled = append(stalled, conn)
				}
			}
			s.clientsMutex.RUnlock()

			s.clientsMutex.Lock()
			for _, conn := range stalled {
				if client, ok := s.clients[conn]; ok {
					delete(s.clients, conn)
					close(client.send)
					conn.Close(websocket.StatusNormalClosure, "")
				}
			}
			s.clientsMutex.Unlock()
		}
	}
}

// broadcastMessage sends a message to every connected client.
func (s *PreviewServer) broadcastMessage(msg UpdateMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case s.broadcast <- payload:
	default:
	}
}

// compileFor runs a compile request against the current fragment table.
func (s *PreviewServer) compileFor(req CompileRequest) string {
	ctx := s.baseContext
	if len(req.Data) > 0 {
		merged := make(interpolate.Context, len(ctx)+len(req.Data))
		for k, v := range ctx {
			merged[k] = v
		}
		for k, v := range req.Data {
			merged[k] = v
		}
		ctx = merged
	}

	title := req.Title
	if title == "" {
		title = s.config.Preview.Title
	}

	style := req.Style
	if s.config.Preview.Style != "" {
		style = s.config.Preview.Style + "\n" + style
	}

	doc := compiler.Compile(req.Source, style, s.Lookup(), compiler.Options{
		Title: title,
		Data:  ctx,
	})
	if s.collector.HasErrors() {
		doc = injectOverlay(doc, s.collector.Overlay())
	}
	return doc
}

// injectOverlay places the diagnostics fragment inside the document body so
// it renders over the preview instead of after the closing html tag.
func injectOverlay(doc, overlay string) string {
	if i := strings.LastIndex(doc, "</body>"); i >= 0 {
		return doc[:i] + overlay + "\n" + doc[i:]
	}
	return doc + "\n" + overlay
}

// readPump reads compile requests from the client and queues responses.
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c.conn
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		readCtx, cancel := context.WithTimeout(context.Background(), readWait)
		_, data, err := c.conn.Read(readCtx)
		cancel()
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.server.logger.Debug(context.Background(), "websocket read ended", "error", err.Error())
			}
			return
		}

		var req CompileRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Type != "compile" {
			continue
		}

		timer := c.server.logger.StartCompile("websocket")
		html := c.server.compileFor(req)
		timer.End(context.Background(), len(html))

		payload, err := json.Marshal(UpdateMessage{
			Type:      "render",
			Content:   html,
			Timestamp: time.Now(),
		})
		if err != nil {
			continue
		}

		select {
		case c.send <- payload:
		default:
			// client is stalled, the hub will reap it
		}
	}
}

// writePump delivers queued messages and keepalive pings to the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
