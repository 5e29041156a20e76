package realtime

import "errors"

var (
	// ErrRelayRedisRequired is returned when a relay is constructed without a redis client.
	ErrRelayRedisRequired = errors.New("realtime: relay requires a redis client")
	// ErrRelayRegistryRequired is returned when a relay is constructed without a registry.
	ErrRelayRegistryRequired = errors.New("realtime: relay requires a registry")
	// ErrRelaySubscribeFailed indicates the relay could not subscribe to its channel.
	ErrRelaySubscribeFailed = errors.New("realtime: relay subscription failed")
	// ErrRelayChannelClosed indicates the subscription channel closed unexpectedly.
	ErrRelayChannelClosed = errors.New("realtime: relay channel closed")
)
