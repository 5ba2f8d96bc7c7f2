package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lab271/sensorkb/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type       string `json:"type"` // "ingest"
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	SourceType string `json:"source_type"`
}

// wsMessage is the outgoing WebSocket message format. Progress messages
// arrive while a document moves through the pipeline; a result or error
// message closes out each request.
type wsMessage struct {
	Type       string          `json:"type"` // "progress", "result", or "error"
	DocumentID string          `json:"document_id,omitempty"`
	State      string          `json:"state,omitempty"`
	Done       int             `json:"done,omitempty"`
	Total      int             `json:"total,omitempty"`
	Result     *ingestResponse `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// progressBroker fans pipeline progress events out to subscribed
// WebSocket clients. Subscribers hold buffered channels; a slow client
// drops events rather than stalling ingestion.
type progressBroker struct {
	mu   sync.Mutex
	subs map[chan wsMessage]struct{}
}

func newProgressBroker() *progressBroker {
	return &progressBroker{subs: make(map[chan wsMessage]struct{})}
}

func (b *progressBroker) subscribe() chan wsMessage {
	ch := make(chan wsMessage, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *progressBroker) unsubscribe(ch chan wsMessage) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *progressBroker) publish(documentID string, state pipeline.DocState, done, total int) {
	msg := wsMessage{
		Type:       "progress",
		DocumentID: documentID,
		State:      string(state),
		Done:       done,
		Total:      total,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (s *Server) handleIngestWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	events := s.progress.subscribe()
	defer s.progress.unsubscribe(events)

	// Writer goroutine: progress events and request outcomes share one
	// channel so only one goroutine ever writes to the connection.
	results := make(chan wsMessage, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case msg, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case msg, ok := <-results:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}()
	defer close(results)

	// send queues a message for the writer; it gives up once the writer
	// has exited so a dead connection never blocks the read loop.
	send := func(msg wsMessage) bool {
		select {
		case results <- msg:
			return true
		case <-done:
			return false
		}
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			send(wsMessage{Type: "error", Error: "invalid message format"})
			continue
		}
		if req.Type != "ingest" {
			send(wsMessage{Type: "error", Error: "unknown message type: " + req.Type})
			continue
		}
		if req.DocumentID == "" || req.Text == "" {
			send(wsMessage{Type: "error", DocumentID: req.DocumentID, Error: "document_id and text are required"})
			continue
		}

		result, err := s.svc.Ingest(r.Context(), pipeline.IngestRequest{
			DocumentID: req.DocumentID,
			Title:      req.Title,
			Text:       req.Text,
			SourceType: req.SourceType,
		})
		if err != nil {
			if !send(wsMessage{Type: "error", DocumentID: req.DocumentID, Error: err.Error()}) {
				return
			}
			continue
		}

		ok := send(wsMessage{
			Type:       "result",
			DocumentID: result.DocumentID,
			Result: &ingestResponse{
				DocumentID:     result.DocumentID,
				State:          string(result.State),
				ChunksCreated:  result.ChunksCreated,
				ChunksEmbedded: result.ChunksEmbedded,
				ChunksFailed:   result.ChunksFailed,
			},
		})
		if !ok {
			return
		}
	}
}
