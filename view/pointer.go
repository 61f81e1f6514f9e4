package view

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pipelined/subsim/input"
)

// PointerMessage is sent by browser on every pointer event. Coordinates
// are in canvas-square units, contact is false when pointer is released.
type PointerMessage struct {
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Contact bool    `json:"contact"`
}

// pointer reads messages until connection is closed. Closing the
// connection releases the pointer.
func (v *View) pointer(w http.ResponseWriter, r *http.Request) {
	conn, err := v.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// response is already written by upgradeError
		return
	}
	defer conn.Close()
	defer v.setPointer(input.Point{}, false)

	v.log.Info(fmt.Sprintf("view: pointer connected from %v", conn.RemoteAddr()))
	for {
		var m PointerMessage
		if err := conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				v.log.Warn(fmt.Sprintf("view: read pointer: %v", err))
				v.meter(0, err)
			}
			return
		}
		v.setPointer(input.Point{X: m.X, Y: m.Y}, m.Contact)
		v.meter(1, nil)
	}
}

// upgradeError writes the reason of failed upgrade to the client.
func (v *View) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	v.log.Warn(fmt.Sprintf("view: upgrade pointer connection from %v: %v", r.RemoteAddr, reason))
	w.Header().Set("Sec-Websocket-Version", "13")
	http.Error(w, reason.Error(), status)
}
