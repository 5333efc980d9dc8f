package interfaces

// ProducerHandler publishes ledger and account events to the broker.
// Publish failures must never roll back the stored state they describe.
type ProducerHandler interface {
	PublishMessage(key, value []byte) error
}
