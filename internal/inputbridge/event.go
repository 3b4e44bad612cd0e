// Package inputbridge decodes newline-delimited JSON input events and applies
// them to the camera. Events arrive from the HTTP input endpoint, a kiosk
// controller on a serial port, or any other line-oriented stream.
package inputbridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/mapcam/internal/camera"
)

var (
	// ErrUnknownEvent is returned for an unrecognised event type.
	ErrUnknownEvent = errors.New("unknown input event")
	// ErrMalformedEvent is returned when an event is missing required fields.
	ErrMalformedEvent = errors.New("malformed input event")
)

// Event types.
const (
	PointerDown = "pointer_down"
	PointerMove = "pointer_move"
	PointerUp   = "pointer_up"
	Hover       = "hover"
	Wheel       = "wheel"
	TouchStart  = "touch_start"
	TouchMove   = "touch_move"
	TouchEnd    = "touch_end"
	Pick        = "pick"
	Visibility  = "visibility"
)

// Event is one input event. Only the fields relevant to Type are read.
//
//	{"type":"pointer_down","x":10,"y":20,"button":"primary"}
//	{"type":"touch_move","points":[[10,20],[30,40]]}
//	{"type":"wheel","delta_y":-120}
type Event struct {
	Type      string       `json:"type"`
	X         float64      `json:"x,omitempty"`
	Y         float64      `json:"y,omitempty"`
	Button    string       `json:"button,omitempty"`
	DeltaY    float64      `json:"delta_y,omitempty"`
	Points    [][2]float64 `json:"points,omitempty"`
	FeatureID string       `json:"feature_id,omitempty"`
	Visible   *bool        `json:"visible,omitempty"`
}

// Decode parses and checks one event.
func Decode(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Validate checks the event carries what its type needs.
func (ev Event) Validate() error {
	switch ev.Type {
	case PointerDown:
		if _, err := parseButton(ev.Button); err != nil {
			return err
		}
	case PointerMove, PointerUp, Hover, Wheel, TouchEnd:
	case TouchStart, TouchMove:
		if len(ev.Points) == 0 || len(ev.Points) > 2 {
			return fmt.Errorf("%w: %s needs one or two points, got %d", ErrMalformedEvent, ev.Type, len(ev.Points))
		}
	case Pick:
		if ev.FeatureID == "" {
			return fmt.Errorf("%w: pick needs feature_id", ErrMalformedEvent)
		}
	case Visibility:
		if ev.Visible == nil {
			return fmt.Errorf("%w: visibility needs visible", ErrMalformedEvent)
		}
	case "":
		return fmt.Errorf("%w: missing type", ErrMalformedEvent)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}

func parseButton(name string) (camera.Button, error) {
	switch name {
	case "", "primary", "left":
		return camera.ButtonPrimary, nil
	case "middle":
		return camera.ButtonMiddle, nil
	case "secondary", "right":
		return camera.ButtonSecondary, nil
	}
	return 0, fmt.Errorf("%w: unknown button %q", ErrMalformedEvent, name)
}

func (ev Event) points() []r2.Vec {
	out := make([]r2.Vec, len(ev.Points))
	for i, p := range ev.Points {
		out[i] = r2.Vec{X: p[0], Y: p[1]}
	}
	return out
}

// Apply feeds a validated event to the controller. Non-finite coordinates are
// dropped by the controller itself.
func Apply(c *camera.Controller, ev Event) error {
	switch ev.Type {
	case PointerDown:
		b, err := parseButton(ev.Button)
		if err != nil {
			return err
		}
		c.PointerDown(ev.X, ev.Y, b)
	case PointerMove:
		c.PointerMove(ev.X, ev.Y)
	case PointerUp:
		c.PointerUp(ev.X, ev.Y)
	case Hover:
		c.Hover(ev.X, ev.Y)
	case Wheel:
		c.Wheel(ev.DeltaY)
	case TouchStart:
		c.TouchStart(ev.points())
	case TouchMove:
		c.TouchMove(ev.points())
	case TouchEnd:
		c.TouchEnd()
	case Pick:
		c.Pick(ev.FeatureID)
	case Visibility:
		if ev.Visible == nil {
			return fmt.Errorf("%w: visibility needs visible", ErrMalformedEvent)
		}
		c.SetVisible(*ev.Visible)
	default:
		return ev.Validate()
	}
	return nil
}
