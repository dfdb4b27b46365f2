package live

// MessageType represents the type of live protocol message
type MessageType uint8

const (
	// Frame types
	FramePatches MessageType = 0x00
	FrameEvent   MessageType = 0x01
	FrameControl MessageType = 0x02
)

// EventType represents client-side input event types
type EventType uint8

const (
	EventPointerDown   EventType = 0x01
	EventPointerMove   EventType = 0x02
	EventPointerUp     EventType = 0x03
	EventPointerCancel EventType = 0x04
	EventWheel         EventType = 0x05
	EventZoom          EventType = 0x06
	EventFit           EventType = 0x07
	EventResetView     EventType = 0x08
)

func (t EventType) String() string {
	switch t {
	case EventPointerDown:
		return "pointerdown"
	case EventPointerMove:
		return "pointermove"
	case EventPointerUp:
		return "pointerup"
	case EventPointerCancel:
		return "pointercancel"
	case EventWheel:
		return "wheel"
	case EventZoom:
		return "zoom"
	case EventFit:
		return "fit"
	case EventResetView:
		return "reset"
	default:
		return "unknown"
	}
}

// Event represents a client-side input event. X and Y are in the SVG root's
// user space, the view coordinates of the scene.
type Event struct {
	Type    EventType
	Pointer uint32
	NodeID  uint32 // Scene element under the pointer, for pointer down
	X, Y    float32
	Delta   float32 // Wheel delta, zoom factor or fit padding
}

// Control messages
const (
	ControlHello  = "HELLO"
	ControlPing   = "PING"
	ControlPong   = "PONG"
	ControlResize = "RESIZE" // Followed by width and height as uvarints
	ControlSelect = "SELECT" // Followed by the selected node as JSON
	ControlError  = "ERROR"  // Followed by a message
)
