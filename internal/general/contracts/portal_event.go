package contracts

// PortalEventType names a driver activity published to the broker.
type PortalEventType string

const (
	EventLoggedIn       PortalEventType = "logged_in"
	EventRegistered     PortalEventType = "registered"
	EventLoggedOut      PortalEventType = "logged_out"
	EventSessionExpired PortalEventType = "session_expired"
	EventCarChanged     PortalEventType = "car_changed"
)

// RoutingKey returns "portal.{event}".
func (t PortalEventType) RoutingKey() string {
	return RoutePortalPrefix + string(t)
}

// PortalEventMessage is published on portal_topic.
type PortalEventMessage struct {
	Envelope
	Type     PortalEventType `json:"type"`
	DriverID string          `json:"driver_id,omitempty"`
	City     string          `json:"city,omitempty"`
	Phone    string          `json:"phone,omitempty"` // masked
	Plate    string          `json:"plate,omitempty"`
}
