package operation

import "sync"

// Callbacks collects the functions notified with the outcome of a write batch.
type Callbacks struct {
	mu        sync.Mutex
	callbacks []func(error)
}

func (b *Callbacks) AddCallback(callback func(error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

// NotifyCallbacks invokes the callbacks in registration order with the commit result,
// nil if the batch was committed.
func (b *Callbacks) NotifyCallbacks(err error) {
	b.mu.Lock()
	callbacks := b.callbacks
	b.mu.Unlock()

	for _, callback := range callbacks {
		callback(err)
	}
}
