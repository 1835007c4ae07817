package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/courtly/club-system/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin browsers are allowed; auth happens at subscription
	// level, the socket is push-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type LiveHandler struct {
	hub *live.Hub
}

func NewLiveHandler(hub *live.Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

// Subscribe upgrades the connection and joins the event's room.
func (h *LiveHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: strconv.Itoa(eventID),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
