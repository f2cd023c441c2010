// Package bus implements the narrow Menu/Workspace Bus named in §4.7: a
// small command/event dispatcher a Workspace uses for lateral,
// Service-to-Service communication without every Service holding a
// direct reference to every other one. Grounded on original_source's
// Commander/Bus split (Commander.h, Bus.h): commands with no return
// value, calls that return one, and named events other Services
// subscribe to. The params/result shape is plain Go
// (map[string]any/any) rather than a QVariantMap transliteration;
// logging follows the teacher's plain log.Printf with a bracketed
// component tag (sqlite.go's "[sqlite] ..." convention) since no
// structured logging library appears anywhere in the retrieval pack.
package bus

import (
	"fmt"
	"log"
)

// Well-known command/call IDs the engine core itself reads or writes,
// kept narrow per §4.7 — "described only where it touches the core".
const (
	// GetSetting calls into the Settings Service: params["key"] in,
	// the current value out (or the supplied default if unset).
	GetSetting = "call.settings:get"
	// SetSetting is a command to the Settings Service:
	// params["key"]/params["value"].
	SetSetting = "cmd.settings:set"
)

// Event names the engine core emits; a Workspace's other Services
// subscribe to the ones they care about.
const (
	// EventSettingChanged fires after a successful SetSetting, with
	// Params{"key": ..., "value": ...}.
	EventSettingChanged = "event.settings:changed"
	// EventFileModelModificationChanged mirrors the original's
	// fileModelModificationChanged signal (Bus.h): Params{"path": ...,
	// "modified": bool}. No package in this module emits it.
	EventFileModelModificationChanged = "event.filemodel:modification_changed"
)

// Params is the argument bag passed with a command, call, or event.
type Params map[string]any

// CommandHandler handles a fire-and-forget command.
type CommandHandler func(Params)

// CallHandler handles a call and returns a result.
type CallHandler func(Params) any

// EventHandler observes an event after it has already happened.
type EventHandler func(Params)

// Bus is the process-local command/call/event dispatcher one Workspace
// owns and its Services register against.
type Bus struct {
	commands map[string]CommandHandler
	calls    map[string]CallHandler
	events   map[string][]EventHandler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{
		commands: make(map[string]CommandHandler),
		calls:    make(map[string]CallHandler),
		events:   make(map[string][]EventHandler),
	}
}

// HandleCommand registers the handler for a command id. Registering a
// second handler for the same id replaces the first — a Bus has exactly
// one owner per command, per the original's one-handler-per-id model.
func (b *Bus) HandleCommand(id string, h CommandHandler) {
	b.commands[id] = h
}

// HandleCall registers the handler for a call id.
func (b *Bus) HandleCall(id string, h CallHandler) {
	b.calls[id] = h
}

// On subscribes h to every future emission of event. Multiple
// subscribers are allowed, unlike commands/calls.
func (b *Bus) On(event string, h EventHandler) {
	b.events[event] = append(b.events[event], h)
}

// Execute runs the command registered for id, logging and no-opping if
// none is registered.
func (b *Bus) Execute(id string, params Params) {
	h, ok := b.commands[id]
	if !ok {
		log.Printf("[bus] no handler for command %q", id)
		return
	}
	h(params)
}

// Call runs the call registered for id and returns its result. Returns
// nil if no handler is registered.
func (b *Bus) Call(id string, params Params) any {
	h, ok := b.calls[id]
	if !ok {
		log.Printf("[bus] no handler for call %q", id)
		return nil
	}
	return h(params)
}

// Emit notifies every subscriber of event, in subscription order.
func (b *Bus) Emit(event string, params Params) {
	for _, h := range b.events[event] {
		h(params)
	}
}

// GetSettingString is a typed convenience wrapper around
// Call(GetSetting, ...) for the common case of a string-valued setting,
// used by the editor-font re-application path described in §4.7.
func (b *Bus) GetSettingString(key, fallback string) string {
	result := b.Call(GetSetting, Params{"key": key, "default": fallback})
	if s, ok := result.(string); ok {
		return s
	}
	return fallback
}

// SetSetting executes SetSetting for key/value and emits
// EventSettingChanged so subscribers (e.g. open views re-reading the
// editor font) react without polling.
func (b *Bus) SetSetting(key string, value any) {
	b.Execute(SetSetting, Params{"key": key, "value": value})
	b.Emit(EventSettingChanged, Params{"key": key, "value": value})
}

// MustString extracts a required string param, panicking with a
// descriptive message if absent or the wrong type — used by handler
// bodies where a missing required param is a programmer error, not a
// runtime condition to recover from.
func MustString(p Params, key string) string {
	v, ok := p[key]
	if !ok {
		panic(fmt.Sprintf("bus: missing required param %q", key))
	}
	s, ok := v.(string)
	if !ok {
		panic(fmt.Sprintf("bus: param %q is not a string (got %T)", key, v))
	}
	return s
}
