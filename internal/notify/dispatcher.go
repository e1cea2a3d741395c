package notify

import "log"

// Publisher is what event producers depend on. Publishing never blocks
// trading on delivery failures.
type Publisher interface {
	Publish(event Event)
}

// Sink is a single notification channel.
type Sink interface {
	Name() string
	Send(event Event) error
}

// Dispatcher fans events out to all registered sinks. Delivery failures
// are logged and swallowed so a dead channel never stalls the engine.
type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// AddSink registers another delivery channel. Not safe for concurrent
// use with Publish; register sinks before the engine starts.
func (d *Dispatcher) AddSink(sink Sink) {
	d.sinks = append(d.sinks, sink)
}

func (d *Dispatcher) Publish(event Event) {
	for _, sink := range d.sinks {
		if err := sink.Send(event); err != nil {
			log.Printf("notify: %s delivery failed for %s: %v", sink.Name(), event.Kind(), err)
		}
	}
}

// Noop is a Publisher that drops every event. Useful in tests and when
// no channels are configured.
type Noop struct{}

func (Noop) Publish(Event) {}
