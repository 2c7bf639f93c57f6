// Package ws exposes the strip over websockets: one endpoint takes JSON
// commands, another streams every frame that was shown.
package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Target is the strip as driven by remote clients.
type Target interface {
	NumPixels() int
	SetPixel(i int, c uint32)
	SetBrightness(level uint8)
	Clear()
	Show() error
	Pixels() []byte
}

// Message is one control command.
//
//	{"op":"set","index":3,"color":16711680}
//	{"op":"fill","color":255}
//	{"op":"brightness","level":64}
//	{"op":"clear"}
//	{"op":"show"}
type Message struct {
	Op    string `json:"op"`
	Index int    `json:"index,omitempty"`
	Color uint32 `json:"color,omitempty"`
	Level int    `json:"level,omitempty"`
}

type Reply struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Pixels int    `json:"pixels,omitempty"`
}

// Frame is broadcast after every show. Data is the wire order buffer.
type Frame struct {
	ID   uint64 `json:"id"`
	Data []byte `json:"data"`
}

// writeWait bounds one frame write to a listener; a client that cannot take
// it in time is dropped.
const writeWait = 200 * time.Millisecond

type State struct {
	mu      sync.Mutex
	target  Target
	frameID uint64
	clients map[*websocket.Conn]bool
	log     zerolog.Logger

	// wmu serializes frame writes; mu is never held while writing.
	wmu sync.Mutex

	up websocket.Upgrader
}

func NewState(t Target, log zerolog.Logger) *State {
	return &State{
		target:  t,
		clients: map[*websocket.Conn]bool{},
		log:     log,
		up:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Apply runs one command against the strip.
func (s *State) Apply(m Message) error {
	s.mu.Lock()
	var frame *Frame
	err := func() error {
		switch m.Op {
		case "set":
			if m.Index < 0 || m.Index >= s.target.NumPixels() {
				return fmt.Errorf("index %d out of range 0..%d", m.Index, s.target.NumPixels()-1)
			}
			s.target.SetPixel(m.Index, m.Color)
		case "fill":
			for i := 0; i < s.target.NumPixels(); i++ {
				s.target.SetPixel(i, m.Color)
			}
		case "brightness":
			if m.Level < 0 || m.Level > 255 {
				return fmt.Errorf("brightness %d out of 0..255", m.Level)
			}
			s.target.SetBrightness(uint8(m.Level))
		case "clear":
			s.target.Clear()
		case "show":
			if err := s.target.Show(); err != nil {
				return err
			}
			s.frameID++
			frame = &Frame{ID: s.frameID, Data: s.target.Pixels()}
		default:
			return fmt.Errorf("unknown op %q", m.Op)
		}
		return nil
	}()
	s.mu.Unlock()

	if frame != nil {
		s.broadcast(frame)
	}
	return err
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("control client gone")
			}
			return
		}
		rep := Reply{OK: true, Pixels: s.target.NumPixels()}
		if err := s.Apply(m); err != nil {
			rep = Reply{Error: err.Error()}
		}
		if err := conn.WriteJSON(rep); err != nil {
			return
		}
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Clients is the number of connected frame listeners.
func (s *State) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "pixels": s.target.NumPixels()})
}

func (s *State) broadcast(f *Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.wmu.Lock()
	defer s.wmu.Unlock()
	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.log.Debug().Err(err).Msg("frame client dropped")
			c.Close()
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
		}
	}
}

// Routes registers the handlers on mux.
func (s *State) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/health", s.HandleHealth)
}
