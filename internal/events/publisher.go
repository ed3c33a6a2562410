package events

// Publisher is the write-path view of the bus. Services depend on this
// interface so tests can capture events without a running dispatcher.
type Publisher interface {
	Publish(ev Event)
}

var _ Publisher = (*Bus)(nil)
