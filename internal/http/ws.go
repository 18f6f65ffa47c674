package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/example/ridewise/internal/session"
)

var upgrader = websocket.Upgrader{}

// handleDriverWS keeps a driver connection open to receive booking notices.
func (s *Server) handleDriverWS(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	s.wsreg.Add(sess.AccountID, conn)
	s.logger.Info("driver connected", "driver_id", sess.AccountID)
	go func() {
		defer func() {
			s.wsreg.Remove(sess.AccountID, conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
