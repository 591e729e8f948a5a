package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// request and response mirror the tint service's wire format.
type request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type response struct {
	ID     string          `json:"id"`
	Result uint32          `json:"result"`
	Value  json.RawMessage `json:"value,omitempty"`
}

// snapshot is the polled service state.
type snapshot struct {
	Active   bool
	Mode     int
	Internal int
	External int
}

// pending maps request ids to a tag naming what they asked for.
type pending struct {
	mu sync.Mutex
	m  map[string]string
}

func (p *pending) add(id, tag string) {
	p.mu.Lock()
	p.m[id] = tag
	p.mu.Unlock()
}

func (p *pending) take(id string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tag, ok := p.m[id]
	delete(p.m, id)
	return tag, ok
}

func main() {
	var (
		wsURL    = flag.String("ws", "ws://127.0.0.1:7438/tint", "Tint service websocket URL")
		interval = flag.Int("interval", 500, "Polling interval in milliseconds")
		command  = flag.String("cmd", "", "Call a single method and exit (e.g., 'IsServiceActive' or 'GetPerformanceMode')")
		params   = flag.String("params", "", "JSON params for -cmd (e.g., '{\"id\":0}')")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	var writeMu sync.Mutex
	inflight := &pending{m: make(map[string]string)}

	// Single call mode. Initialize first unless that is the call.
	if *command != "" {
		if *command != "Initialize" && *command != "IsServiceActive" {
			sendRequest(conn, &writeMu, inflight, "Initialize", "Initialize", nil)
			if _, err := readResponse(conn); err != nil {
				log.Fatalf("failed to initialize: %v", err)
			}
		}
		var raw json.RawMessage
		if *params != "" {
			raw = json.RawMessage(*params)
		}
		sendRequest(conn, &writeMu, inflight, *command, *command, raw)
		resp, err := readResponse(conn)
		if err != nil {
			log.Fatalf("failed to read response: %v", err)
		}
		prettyJSON, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Printf("%s\n", string(prettyJSON))
		if resp.Result != 0 {
			fmt.Printf("[RESULT] %s\n", formatResult(resp.Result))
		}
		return
	}

	log.Printf("connected! (press Ctrl+C to exit)")
	sendRequest(conn, &writeMu, inflight, "Initialize", "Initialize", nil)
	log.Printf("polling service state every %dms", *interval)

	pollTicker := time.NewTicker(time.Duration(*interval) * time.Millisecond)
	defer pollTicker.Stop()

	go func() {
		for range pollTicker.C {
			sendRequest(conn, &writeMu, inflight, "active", "GetIsActive", nil)
			sendRequest(conn, &writeMu, inflight, "mode", "GetPerformanceMode", nil)
			sendRequest(conn, &writeMu, inflight, "internal", "GetActiveProfileId", json.RawMessage(`{"external":false}`))
			sendRequest(conn, &writeMu, inflight, "external", "GetActiveProfileId", json.RawMessage(`{"external":true}`))
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)

		var last *snapshot
		cur := snapshot{Internal: -1, External: -1}

		for {
			resp, err := readResponse(conn)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}

			tag, ok := inflight.take(resp.ID)
			if !ok {
				fmt.Printf("[UNSOLICITED] id=%s\n", resp.ID)
				continue
			}
			if resp.Result != 0 {
				fmt.Printf("[%s] failed: %s\n", tag, formatResult(resp.Result))
				continue
			}

			roundDone, err := applyResponse(&cur, tag, resp.Value)
			if err != nil {
				fmt.Printf("[%s] malformed value: %v\n", tag, err)
				continue
			}
			if roundDone {
				for _, line := range changes(last, cur) {
					fmt.Println(line)
				}
				s := cur
				last = &s
			}
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// applyResponse stores a successful reply in cur according to its tag. It
// reports true on the "external" reply, which ends a poll round.
func applyResponse(cur *snapshot, tag string, value json.RawMessage) (bool, error) {
	switch tag {
	case "active":
		return false, json.Unmarshal(value, &cur.Active)
	case "mode":
		return false, json.Unmarshal(value, &cur.Mode)
	case "internal":
		return false, json.Unmarshal(value, &cur.Internal)
	case "external":
		return true, json.Unmarshal(value, &cur.External)
	}
	return false, nil
}

// changes lists what differs from the previous snapshot. A nil last reports
// everything.
func changes(last *snapshot, cur snapshot) []string {
	var out []string
	if last == nil || last.Active != cur.Active {
		status := "ACTIVE"
		if !cur.Active {
			status = "INACTIVE"
		}
		out = append(out, "[CORRECTION] "+status)
	}
	if last == nil || last.Mode != cur.Mode {
		mode := "normal"
		if cur.Mode != 0 {
			mode = "other"
		}
		out = append(out, "[MODE] "+mode)
	}
	if last == nil || last.Internal != cur.Internal || last.External != cur.External {
		out = append(out, fmt.Sprintf("[PROFILES] internal=%d external=%d", cur.Internal+1, cur.External+1))
	}
	return out
}

// formatResult renders a result code as "0x<raw> (<module+2000>-<description>)".
func formatResult(r uint32) string {
	return fmt.Sprintf("%#x (%04d-%04d)", r, r&0x1ff+2000, (r>>9)&0x1fff)
}

func readResponse(conn *websocket.Conn) (response, error) {
	var resp response
	_, message, err := conn.ReadMessage()
	if err != nil {
		return resp, err
	}
	if err := json.Unmarshal(message, &resp); err != nil {
		return resp, fmt.Errorf("malformed response: %w", err)
	}
	return resp, nil
}

// sendRequest sends a method call (thread-safe)
func sendRequest(conn *websocket.Conn, writeMu *sync.Mutex, inflight *pending, tag, method string, params json.RawMessage) {
	req := request{ID: uuid.NewString(), Method: method, Params: params}
	payload, err := json.Marshal(req)
	if err != nil {
		log.Printf("error marshaling request: %v", err)
		return
	}
	inflight.add(req.ID, tag)

	writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	writeMu.Unlock()

	if err != nil {
		log.Printf("error sending request: %v", err)
	}
}
