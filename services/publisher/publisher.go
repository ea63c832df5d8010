package publisher

// Publisher announces successfully persisted offers so downstream
// consumers (e.g. a notification bot) can react to new flats.
type Publisher interface {
	// Publish publishes one offer payload
	Publish(message []byte) error

	// Close closes the publisher connection
	Close() error
}
