package ndp

// launchBufferCapWords is the DIMM-level launch-request buffer's capacity:
// 1024 64-bit words (spec.md §4.5).
const launchBufferCapWords = 1024

// groupSize is the number of words a single host write appends, and the
// number an NL-request slot array drains at once.
const groupSize = 8

// LaunchBuffer is the DIMM-level launch-request buffer: raw 64-bit payload
// words plus a FIFO of which pseudo-channel each 8-word group targets.
type LaunchBuffer struct {
	words []uint64
	tags  []int
}

// NewLaunchBuffer creates an empty launch-request buffer.
func NewLaunchBuffer() *LaunchBuffer { return &LaunchBuffer{} }

// Append adds one 8-word group targeting pch, reporting whether there was
// room (the buffer holds at most launchBufferCapWords words).
func (b *LaunchBuffer) Append(pch int, words [groupSize]uint64) bool {
	if len(b.words)+groupSize > launchBufferCapWords {
		return false
	}
	b.words = append(b.words, words[:]...)
	b.tags = append(b.tags, pch)
	return true
}

// Len reports how many 8-word groups are queued.
func (b *LaunchBuffer) Len() int { return len(b.tags) }

// PeekGroupFor reports whether the oldest queued group targets pch, and if
// so returns it without removing it.
func (b *LaunchBuffer) PeekGroupFor(pch int) ([groupSize]uint64, bool) {
	if len(b.tags) == 0 || b.tags[0] != pch {
		return [groupSize]uint64{}, false
	}
	var out [groupSize]uint64
	copy(out[:], b.words[:groupSize])
	return out, true
}

// PopGroup removes the oldest queued group.
func (b *LaunchBuffer) PopGroup() {
	if len(b.tags) == 0 {
		return
	}
	b.words = b.words[groupSize:]
	b.tags = b.tags[1:]
}
