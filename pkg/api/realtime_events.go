package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/Plantigo/plantigo-backend/pkg/api/resource"
)

func (h *Handler) realtimeEventsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.nc == nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			log.Error("api: failed to upgrade to websocket: ", err)
			return nil
		}
		defer conn.Close()

		sub, err := h.nc.Subscribe("plantigo.telemetry.v1.>", func(msg *nats.Msg) {

			// The topic is the subject minus the versioned prefix
			topic := strings.TrimPrefix(msg.Subject, "plantigo.telemetry.v1.")

			// Parse the message and send it
			var data interface{}
			if err := json.Unmarshal(msg.Data, &data); err == nil {
				event := resource.NewRealtimeEvent(topic, data)
				out, _ := json.Marshal(event)
				err = wsutil.WriteServerMessage(conn, ws.OpText, out)
				if err != nil {
					log.Error("api: failed to send realtime event: ", err)
				}
			}

		})
		if err != nil {
			log.Error("api: failed to subscribe to event stream: ", err)
			return nil
		}
		defer sub.Unsubscribe()

		// Block until the client goes away
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				return nil
			}
		}
	}
}
