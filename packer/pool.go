package packer

import (
	"container/list"
	"sync"

	"github.com/altair-render/altair/log"
)

const (
	// Maximum free buffers retained per pool key.
	defaultMaxPerKey = 4

	// Default total budget for retained buffers.
	DefaultPoolBytes int64 = 256 << 20
)

// A pool key: buffer category, element type and full shape. Buffers are
// reused only on an exact key match.
type poolKey struct {
	kind   Kind
	format Format
	width  uint32
	height uint32
	layers uint32
}

type poolEntry struct {
	buf  *Buffer
	elem *list.Element
}

// Pool retains released buffers for reuse across compiles of similar size.
// Retention is bounded both per key and by a total byte budget; exceeding
// the budget evicts the least-recently-released entries first. Safe for
// concurrent use.
type Pool struct {
	mu     sync.Mutex
	logger log.Logger

	free      map[poolKey][]poolEntry
	order     *list.List // *Buffer values, front = least recently released
	maxPerKey int
	maxBytes  int64
	curBytes  int64
	closed    bool

	hits      uint64
	misses    uint64
	evictions uint64
}

// Create a buffer pool with the given retention budget in bytes.
func NewPool(maxBytes int64) *Pool {
	if maxBytes <= 0 {
		maxBytes = DefaultPoolBytes
	}
	return &Pool{
		logger:    log.New("buffer pool"),
		free:      make(map[poolKey][]poolEntry),
		order:     list.New(),
		maxPerKey: defaultMaxPerKey,
		maxBytes:  maxBytes,
	}
}

// Get returns a zeroed buffer with the requested shape, reusing a pooled one
// when available.
func (p *Pool) Get(kind Kind, format Format, width, height, layers uint32) *Buffer {
	key := poolKey{kind: kind, format: format, width: width, height: height, layers: layers}

	p.mu.Lock()
	if entries := p.free[key]; len(entries) > 0 && !p.closed {
		entry := entries[len(entries)-1]
		p.free[key] = entries[:len(entries)-1]
		p.order.Remove(entry.elem)
		p.curBytes -= int64(entry.buf.SizeBytes())
		p.hits++
		p.mu.Unlock()

		zeroBuffer(entry.buf)
		entry.buf.Records = 0
		return entry.buf
	}
	p.misses++
	p.mu.Unlock()

	buf := &Buffer{
		Kind:   kind,
		Format: format,
		Width:  width,
		Height: height,
		Layers: layers,
		pool:   p,
		key:    key,
	}
	pixels := buf.Pixels()
	if format == Unorm8 {
		buf.Byte = make([]byte, pixels*4)
	} else {
		buf.Float = make([]float32, pixels*4)
	}
	return buf
}

// Return a released buffer to its free list, evicting as needed.
func (p *Pool) put(buf *Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.free[buf.key]) >= p.maxPerKey {
		return
	}

	elem := p.order.PushBack(buf)
	p.free[buf.key] = append(p.free[buf.key], poolEntry{buf: buf, elem: elem})
	p.curBytes += int64(buf.SizeBytes())

	for p.curBytes > p.maxBytes && p.order.Len() > 0 {
		p.evictOldestLocked()
	}
}

func (p *Pool) evictOldestLocked() {
	front := p.order.Front()
	victim := front.Value.(*Buffer)
	p.order.Remove(front)

	entries := p.free[victim.key]
	for i, entry := range entries {
		if entry.buf == victim {
			p.free[victim.key] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	p.curBytes -= int64(victim.SizeBytes())
	p.evictions++
	p.logger.Debugf("evicted %s (%d bytes pooled)", victim, p.curBytes)
}

// Pool usage counters.
type PoolStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Retained  int64
}

func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Hits: p.hits, Misses: p.misses, Evictions: p.evictions, Retained: p.curBytes}
}

// Close drops every retained buffer. Subsequent Gets still allocate, but
// released buffers are no longer retained.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.free = make(map[poolKey][]poolEntry)
	p.order.Init()
	p.curBytes = 0
}

func zeroBuffer(buf *Buffer) {
	for i := range buf.Float {
		buf.Float[i] = 0
	}
	for i := range buf.Byte {
		buf.Byte[i] = 0
	}
}
