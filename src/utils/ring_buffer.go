package utils

import (
	"coin-control/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of price ticks.
// True ring buffer - no resizing allowed!
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     []models.MPriceTick
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 120 // Default: a couple minutes of ticks
	}

	return &RingBuffer{
		data:     make([]models.MPriceTick, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds a tick, overwriting the oldest entry once full
func (rb *RingBuffer) Append(tick models.MPriceTick) {
	rb.data[rb.index] = tick
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n most recent ticks, oldest first
func (rb *RingBuffer) GetLatest(n int) []models.MPriceTick {
	if rb.size == 0 || n <= 0 {
		return []models.MPriceTick{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MPriceTick, count)

	// Latest data sits just before the write index
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all ticks in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() []models.MPriceTick {
	if rb.size == 0 {
		return []models.MPriceTick{}
	}

	result := make([]models.MPriceTick, rb.size)

	var startIdx int
	if rb.size == rb.capacity {
		// Buffer is full, oldest is at the current write index
		startIdx = rb.index
	} else {
		startIdx = 0
	}

	for i := 0; i < rb.size; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns the current number of buffered ticks
func (rb *RingBuffer) Size() int {
	return rb.size
}
