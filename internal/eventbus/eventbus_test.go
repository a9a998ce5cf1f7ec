package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishDeliversToAllSubscribers(t *testing.T) {
	b := New[string]()
	var got1, got2 string
	b.Subscribe(func(s string) { got1 = s })
	b.Subscribe(func(s string) { got2 = s })

	b.Publish("hello")

	assert.Equal(t, "hello", got1)
	assert.Equal(t, "hello", got2)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := New[int]()
	var calls int
	sub := b.Subscribe(func(int) { calls++ })

	b.Publish(1)
	b.Unsubscribe(sub)
	b.Publish(2)

	assert.Equal(t, 1, calls)
}

func TestBus_UnsubscribeUnknownIDIsNoOp(t *testing.T) {
	b := New[int]()
	assert.NotPanics(t, func() {
		b.Unsubscribe(Subscription(999))
	})
}

func TestBus_DeliveryOrderIsSubscriptionOrder(t *testing.T) {
	b := New[int]()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		b.Subscribe(func(int) { order = append(order, i) })
	}

	b.Publish(0)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestBus_Len(t *testing.T) {
	b := New[int]()
	assert.Equal(t, 0, b.Len())

	sub := b.Subscribe(func(int) {})
	assert.Equal(t, 1, b.Len())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.Len())
}

func TestBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	b := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := b.Subscribe(func(int) {})
			b.Publish(1)
			b.Unsubscribe(sub)
		}()
	}
	wg.Wait()
}
