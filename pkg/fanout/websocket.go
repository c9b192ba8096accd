package fanout

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fleetlive/fleetlive/pkg/ingest"
	"github.com/fleetlive/fleetlive/pkg/transit"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
)

// message vocabulary of the push channel
const (
	messageDriverLocation  = "driver:location"
	messageDriverStatus    = "driver:status"
	messageRequestVehicles = "passenger:request_vehicles"
	messageError           = "error"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type snapshotRequest struct {
	RouteRef string `json:"route_id"`
}

// wsConnection adapts a websocket connection to the hub's Connection
// interface. Writes are serialised because the underlying connection does
// not allow concurrent writers.
type wsConnection struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConnection) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsConnection) Close() error {
	return c.conn.Close()
}

// UpgradeRequired gates the websocket route to real upgrade requests.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return fiber.ErrUpgradeRequired
}

// WebsocketHandler serves the bidirectional push channel. Viewers are
// subscribed to the hub (optionally filtered with the route query
// parameter) and receive an initial snapshot; drivers submit positions and
// status changes over the same channel.
func WebsocketHandler(hub *Hub, gateway *ingest.Gateway) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		routeRef := conn.Query("route")

		wsConn := &wsConnection{conn: conn}

		hub.Subscribe(wsConn, routeRef)
		defer hub.Unsubscribe(wsConn)

		if err := hub.SnapshotTo(context.Background(), wsConn, routeRef); err != nil {
			log.Warn().Err(err).Msg("Failed to send initial snapshot")
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}

			handleClientMessage(hub, gateway, wsConn, payload)
		}
	})
}

func handleClientMessage(hub *Hub, gateway *ingest.Gateway, conn Connection, payload []byte) {
	var message inboundMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		sendError(conn, "invalid message")
		return
	}

	ctx := context.Background()

	switch message.Type {
	case messageDriverLocation:
		var submission ingest.PositionSubmission
		if err := json.Unmarshal(message.Data, &submission); err != nil {
			sendError(conn, "invalid location data")
			return
		}

		if err := gateway.SubmitPosition(ctx, submission); err != nil {
			sendError(conn, submissionFailureMessage(err, "failed to update location"))
		}

	case messageDriverStatus:
		var submission ingest.StatusSubmission
		if err := json.Unmarshal(message.Data, &submission); err != nil {
			sendError(conn, "invalid status data")
			return
		}

		if err := gateway.SubmitStatus(ctx, submission); err != nil {
			sendError(conn, submissionFailureMessage(err, "failed to update status"))
		}

	case messageRequestVehicles:
		var request snapshotRequest
		if len(message.Data) > 0 {
			if err := json.Unmarshal(message.Data, &request); err != nil {
				sendError(conn, "invalid vehicles request")
				return
			}
		}

		if err := hub.SnapshotTo(ctx, conn, request.RouteRef); err != nil {
			sendError(conn, "failed to get vehicles")
		}

	default:
		sendError(conn, "unknown message type")
	}
}

func submissionFailureMessage(err error, fallback string) string {
	if transit.IsValidationError(err) || transit.IsNotFoundError(err) {
		return err.Error()
	}

	return fallback
}

func sendError(conn Connection, message string) {
	payload, err := json.Marshal(Envelope{
		Type: messageError,
		Data: fiber.Map{"message": message},
	})
	if err != nil {
		return
	}

	if err := conn.Send(payload); err != nil {
		log.Debug().Err(err).Msg("Failed to send error to client")
	}
}
