package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/escapeplan/game"
	"github.com/wfunc/escapeplan/network"
)

// send marshals a message and writes it as a text frame.
func send(c *websocket.Conn, v interface{}) error {
	return c.WriteMessage(websocket.TextMessage, network.Encode(v))
}

// render prints a snapshot as a grid with W, P and T markers.
func render(s network.StateMessage) {
	fmt.Printf("round %d  phase %s  turn %s  %ds left  online %d  score W%d:P%d\n",
		s.Round, s.Phase, s.Turn, s.Remaining, s.Online, s.Scores.Warden, s.Scores.Prisoner)
	for r, row := range s.Board {
		cells := make([]string, len(row))
		for c, sym := range row {
			switch {
			case s.Pos.Warden.R == r && s.Pos.Warden.C == c:
				cells[c] = "W"
			case s.Pos.Prisoner.R == r && s.Pos.Prisoner.C == c:
				cells[c] = "P"
			case sym == "0":
				cells[c] = "."
			default:
				cells[c] = sym
			}
		}
		fmt.Println(strings.Join(cells, " "))
	}
}

func parseCommand(text string) (interface{}, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, nil
	}
	switch fields[0] {
	case "nick":
		return network.NickRequest{Type: network.MsgTypeNick, Name: strings.Join(fields[1:], " ")}, nil
	case "reset":
		return network.ResetRequest{Type: network.MsgTypeReset}, nil
	case "move":
		if len(fields) != 4 {
			return nil, fmt.Errorf("usage: move <warden|prisoner> <row> <col>")
		}
		role, ok := game.ParseRole(fields[1])
		if !ok {
			return nil, fmt.Errorf("unknown role %q", fields[1])
		}
		r, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("bad row: %w", err)
		}
		c, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("bad column: %w", err)
		}
		return network.MoveRequest{Type: network.MsgTypeMove, Role: role, R: r, C: c}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}
}

func main() {
	addr := flag.String("addr", "localhost:8080", "game server address")
	quiet := flag.Bool("quiet", false, "only print the board when it changes turn")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		var lastTurn game.Role
		var lastRound int
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			var tagged struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(message, &tagged); err != nil {
				log.Printf("Received undecodable frame: %s", message)
				continue
			}
			switch tagged.Type {
			case network.MsgTypeState:
				var s network.StateMessage
				if err := json.Unmarshal(message, &s); err != nil {
					continue
				}
				if *quiet && s.Turn == lastTurn && s.Round == lastRound {
					continue
				}
				lastTurn, lastRound = s.Turn, s.Round
				render(s)
			case network.MsgTypeEnd:
				var e network.End
				_ = json.Unmarshal(message, &e)
				log.Printf("*** %s wins by %s, score W%d:P%d ***", e.Winner, e.Cause, e.Scores.Warden, e.Scores.Prisoner)
			default:
				log.Printf("<- RECV: %s", message)
			}
		}
	}()

	log.Println("Client started. Commands: nick <name>, move <role> <row> <col>, reset.")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	// Write loop
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case text := <-lines:
			msg, err := parseCommand(text)
			if err != nil {
				log.Println(err)
				continue
			}
			if msg == nil {
				continue
			}
			if err := send(c, msg); err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}
