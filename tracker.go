package quill

import (
	"bytes"

	"github.com/akmonengine/quill/contact"
	"github.com/google/uuid"
)

const (
	CONTACT_ENTER EventType = iota
	CONTACT_STAY
	CONTACT_EXIT
)

type EventType uint8

func (t EventType) String() string {
	switch t {
	case CONTACT_ENTER:
		return "enter"
	case CONTACT_STAY:
		return "stay"
	case CONTACT_EXIT:
		return "exit"
	}
	return "unknown"
}

// pairKey is a normalized pair of geometry ids, A sorts before B
type pairKey struct {
	A, B uuid.UUID
}

// makePairKey orders the ids so that both call orders give the same key. swapped
// tells whether the ids were exchanged.
func makePairKey(a, b uuid.UUID) (key pairKey, swapped bool) {
	if bytes.Compare(b[:], a[:]) < 0 {
		return pairKey{A: b, B: a}, true
	}
	return pairKey{A: a, B: b}, false
}

// Event is a change in the contact state of a pair of geometries
type Event struct {
	Type EventType
	A, B uuid.UUID
	// Contacts of the step, oriented from A toward B. Empty for CONTACT_EXIT.
	Contacts []contact.Contact
}

// EventListener - callback for events
type EventListener func(event Event)

// Tracker turns the contacts of successive steps into Enter/Stay/Exit events
type Tracker struct {
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey][]contact.Contact
}

func NewTracker() Tracker {
	return Tracker{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey][]contact.Contact),
	}
}

// Subscribe adds a listener for an event type
func (tr *Tracker) Subscribe(eventType EventType, listener EventListener) {
	tr.listeners[eventType] = append(tr.listeners[eventType], listener)
}

// Record marks the pair (a, b) as touching during the current step. Pairs without
// contacts are ignored.
func (tr *Tracker) Record(a, b uuid.UUID, contacts []contact.Contact) {
	if len(contacts) == 0 {
		return
	}

	key, swapped := makePairKey(a, b)
	stored := tr.currentActivePairs[key]
	for _, c := range contacts {
		if swapped {
			c.Swap()
		}
		stored = append(stored, c)
	}
	tr.currentActivePairs[key] = stored
}

// Forget drops every pair involving id without emitting an exit event
func (tr *Tracker) Forget(id uuid.UUID) {
	for pair := range tr.previousActivePairs {
		if pair.A == id || pair.B == id {
			delete(tr.previousActivePairs, pair)
		}
	}
	for pair := range tr.currentActivePairs {
		if pair.A == id || pair.B == id {
			delete(tr.currentActivePairs, pair)
		}
	}
}

// Active reports whether the pair touched during the last flushed step
func (tr *Tracker) Active(a, b uuid.UUID) bool {
	key, _ := makePairKey(a, b)
	return tr.previousActivePairs[key]
}

// process compares current and previous pairs to detect Enter/Stay/Exit
func (tr *Tracker) process() {
	for pair, contacts := range tr.currentActivePairs {
		eventType := CONTACT_ENTER
		if tr.previousActivePairs[pair] {
			eventType = CONTACT_STAY
		}
		tr.buffer = append(tr.buffer, Event{Type: eventType, A: pair.A, B: pair.B, Contacts: contacts})
	}

	for pair := range tr.previousActivePairs {
		if _, ok := tr.currentActivePairs[pair]; !ok {
			tr.buffer = append(tr.buffer, Event{Type: CONTACT_EXIT, A: pair.A, B: pair.B})
		}
	}

	clear(tr.previousActivePairs)
	for pair := range tr.currentActivePairs {
		tr.previousActivePairs[pair] = true
	}
	clear(tr.currentActivePairs)
}

// flush sends all buffered events and clears the buffer
func (tr *Tracker) flush() {
	tr.process()

	for _, event := range tr.buffer {
		for _, listener := range tr.listeners[event.Type] {
			listener(event)
		}
	}
	tr.buffer = tr.buffer[:0]
}
