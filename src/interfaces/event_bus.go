package interfaces

// -----------------------------------------------------------------------------
// IEventBus carries named push events from gateways to subscribers.
// -----------------------------------------------------------------------------

type IEventBus interface {

	// -----------------------------------------------------------------------------

	// Emit delivers the payload synchronously to every live subscriber of the
	// topic.
	Emit(topic string, payload interface{})

	// -----------------------------------------------------------------------------

	// Subscribe registers a handler for the topic. The returned handle's
	// Cancel is the only way to stop delivery.
	Subscribe(topic string, handler func(payload interface{})) IEventHandle
}

// -----------------------------------------------------------------------------

// IEventHandle represents one live subscription.
type IEventHandle interface {

	// Cancel unregisters the handler. Later emits never reach it; an emit
	// concurrent with Cancel may still deliver one final time, so handlers
	// must tolerate that. Safe to call more than once.
	Cancel()
}
