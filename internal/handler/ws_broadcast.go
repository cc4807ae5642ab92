package handler

// BroadcastGameEvent implements service.Broadcaster using the WebSocket hub.
func (h *Hub) BroadcastGameEvent(gameID string, eventType string, data any) {
	h.BroadcastToGame(gameID, WSEvent{
		Type:   eventType,
		GameID: gameID,
		Data:   data,
	})
}

// BroadcastToUserEvent sends a private payload to one user only. Turn views
// go through here so no house ever sees another house's projection.
func (h *Hub) BroadcastToUserEvent(userID string, gameID string, eventType string, data any) {
	h.BroadcastToUser(userID, WSEvent{
		Type:   eventType,
		GameID: gameID,
		Data:   data,
	})
}
