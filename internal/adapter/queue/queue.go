package queue

// MessageQueue is the cross-process relay the event bus forwards domain
// events through, so independently-deployed services can observe them.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
