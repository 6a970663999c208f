package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/dispatch"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/mqtt"
)

type switchCommand struct {
	On *bool `json:"on"`
}

type fanSpeedCommand struct {
	Speed *int `json:"speed"`
}

type colorCommand struct {
	Color string `json:"color"`
}

type modeCommand struct {
	Mode string `json:"mode"`
}

// decodeCommand reads a JSON command body. An empty body decodes to the
// zero value.
func decodeCommand(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// writeCommandResult answers 202 once the publish was handed to the broker.
// Commands are at-most-once; the device's own state topics confirm them.
func (s *Server) writeCommandResult(w http.ResponseWriter, command string, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent", "command": command})
	case errors.Is(err, dispatch.ErrInvalidColor), errors.Is(err, dispatch.ErrInvalidMode):
		writeValidationError(w, err.Error())
	case errors.Is(err, mqtt.ErrNotConnected):
		writeUnavailable(w, "device broker is not connected")
	case errors.Is(err, mqtt.ErrPublishFailed):
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, "publish failed")
	default:
		s.logger.Error("command failed", "command", command, "error", err)
		writeInternalError(w, "command failed")
	}
}

// handleBulbCommand switches the bulb: {"on": true}.
func (s *Server) handleBulbCommand(w http.ResponseWriter, r *http.Request) {
	var cmd switchCommand
	if !decodeCommand(w, r, &cmd) {
		return
	}
	if cmd.On == nil {
		writeValidationError(w, "on is required")
		return
	}
	s.writeCommandResult(w, dispatch.CommandBulb, s.commands.SetBulb(*cmd.On))
}

// handleFanCommand switches the fan: {"on": false}.
func (s *Server) handleFanCommand(w http.ResponseWriter, r *http.Request) {
	var cmd switchCommand
	if !decodeCommand(w, r, &cmd) {
		return
	}
	if cmd.On == nil {
		writeValidationError(w, "on is required")
		return
	}
	s.writeCommandResult(w, dispatch.CommandFan, s.commands.SetFan(*cmd.On))
}

// handleFanSpeedCommand sets the fan speed: {"speed": 60}. Out of range
// values are clamped to 0-100.
func (s *Server) handleFanSpeedCommand(w http.ResponseWriter, r *http.Request) {
	var cmd fanSpeedCommand
	if !decodeCommand(w, r, &cmd) {
		return
	}
	if cmd.Speed == nil {
		writeValidationError(w, "speed is required")
		return
	}
	s.writeCommandResult(w, dispatch.CommandFanSpeed, s.commands.SetFanSpeed(*cmd.Speed))
}

// handleColorCommand sets the bulb colour: {"color": "#FF8800"}.
func (s *Server) handleColorCommand(w http.ResponseWriter, r *http.Request) {
	var cmd colorCommand
	if !decodeCommand(w, r, &cmd) {
		return
	}
	s.writeCommandResult(w, dispatch.CommandColor, s.commands.SetColor(cmd.Color))
}

// handleModeCommand sets the mode: {"mode": "AUTO"}. An empty body or
// {"mode": "TOGGLE"} toggles it.
func (s *Server) handleModeCommand(w http.ResponseWriter, r *http.Request) {
	var cmd modeCommand
	if !decodeCommand(w, r, &cmd) {
		return
	}
	if cmd.Mode == "" {
		s.writeCommandResult(w, dispatch.CommandMode, s.commands.ToggleMode())
		return
	}
	s.writeCommandResult(w, dispatch.CommandMode, s.commands.SetMode(cmd.Mode))
}
