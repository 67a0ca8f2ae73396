// Package notify defines the fire-and-forget event channel between the
// rack core and the presentation layer. Events carry slot indices only; no
// bitmap data crosses this boundary, observers re-read from the model.
package notify

import "time"

type EventType string

const (
	EventGearInstalled   EventType = "gear_installed"
	EventGearRemoved     EventType = "gear_removed"
	EventControlChanged  EventType = "control_changed"
	EventSlotsRearranged EventType = "slots_rearranged"
	EventInstanceReset   EventType = "instance_reset"
	EventPresetLoaded    EventType = "preset_loaded"
	EventPresetSaved     EventType = "preset_saved"
)

// Event is one notification. Data is one of the *Data structs below.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Notifier delivers events to whoever is listening. Delivery happens on the
// single-threaded model context; implementations must not block.
type Notifier interface {
	Publish(Event)
}

type SlotData struct {
	Slot int `json:"slot"`
}

type ControlData struct {
	Slot         int `json:"slot"`
	ControlIndex int `json:"control_index"`
}

type RearrangeData struct {
	SlotA int `json:"slot_a"`
	SlotB int `json:"slot_b"`
}

type PresetData struct {
	Name string `json:"name"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Timestamp: time.Now(), Data: data}
}

func GearInstalled(slot int) Event {
	return newEvent(EventGearInstalled, SlotData{Slot: slot})
}

func GearRemoved(slot int) Event {
	return newEvent(EventGearRemoved, SlotData{Slot: slot})
}

func ControlChanged(slot, controlIndex int) Event {
	return newEvent(EventControlChanged, ControlData{Slot: slot, ControlIndex: controlIndex})
}

func SlotsRearranged(a, b int) Event {
	return newEvent(EventSlotsRearranged, RearrangeData{SlotA: a, SlotB: b})
}

func InstanceReset(slot int) Event {
	return newEvent(EventInstanceReset, SlotData{Slot: slot})
}

func PresetLoaded(name string) Event {
	return newEvent(EventPresetLoaded, PresetData{Name: name})
}

func PresetSaved(name string) Event {
	return newEvent(EventPresetSaved, PresetData{Name: name})
}

// Discard is a Notifier that drops everything. Used where no presentation
// layer is attached.
type Discard struct{}

func (Discard) Publish(Event) {}

// Recorder collects events in order. Test helper.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(e Event) {
	r.Events = append(r.Events, e)
}

// Types returns the event types seen so far, in order.
func (r *Recorder) Types() []EventType {
	out := make([]EventType, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
