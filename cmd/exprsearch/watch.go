/*
Copyright (C) 2026  exprsearch contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"
)

// progressServer pushes one JSON message per completed forest length and
// per match to every connected websocket client. Purely an observer; the
// search neither blocks on nor learns anything from it.
type progressServer struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

func newProgressServer(addr string) *progressServer {
	s := &progressServer{clients: make(map[*websocket.Conn]*sync.Mutex)}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.clients[ws] = &sync.Mutex{}
		s.mu.Unlock()
		go func() {
			for {
				// drain (and ignore) client messages until the peer closes
				if _, _, err := ws.ReadMessage(); err != nil {
					s.mu.Lock()
					delete(s.clients, ws)
					s.mu.Unlock()
					ws.Close()
					return
				}
			}
		}()
	})
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			fmt.Fprintf(os.Stderr, "watch server: %v\n", err)
		}
	}()
	return s
}

// Broadcast sends v as one JSON text message to every connected client.
// A client whose write fails is dropped.
func (s *progressServer) Broadcast(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for c, m := range s.clients {
		conns[c] = m
	}
	s.mu.Unlock()

	for c, m := range conns {
		m.Lock()
		err := c.WriteMessage(websocket.TextMessage, payload)
		m.Unlock()
		if err != nil {
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
			c.Close()
		}
	}
}

type lengthEvent struct {
	Event       string `json:"event"`
	Length      int    `json:"length"`
	Expressions int    `json:"expressions"`
	Statements  int    `json:"statements"`
}

type matchEvent struct {
	Event string `json:"event"`
	X0    int64  `json:"x0"`
	Y0    int64  `json:"y0"`
	StmtX string `json:"stmt_x"`
	StmtY string `json:"stmt_y"`
}
