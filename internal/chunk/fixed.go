package chunk

// FixedLength splits text into chunks of roughly Size runes with Overlap
// runes shared between neighbors. Chunk ends are snapped to the nearest
// sentence terminator within a window around the target size, so chunks
// tend to end on sentence boundaries.
type FixedLength struct {
	Size    int
	Overlap int
}

// snapWindow is how far around the target cut point a sentence terminator
// is searched for.
const snapWindow = 50

// NewFixedLength creates a fixed-length chunker.
func NewFixedLength(size, overlap int) *FixedLength {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &FixedLength{Size: size, Overlap: overlap}
}

func (f *FixedLength) Name() string { return "fixed" }

func (f *FixedLength) Split(text string) []string {
	runes := []rune(text)
	length := len(runes)
	if length == 0 {
		return nil
	}

	var chunks []string
	start := 0

	for start < length {
		end := start + f.Size
		if end >= length {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		if snapped := findTerminator(runes, end); snapped > start {
			end = snapped
		}

		chunks = append(chunks, string(runes[start:end]))

		next := end - f.Overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// findTerminator looks for a sentence terminator within snapWindow runes of
// target and returns the index just past it, or -1 if none is found.
func findTerminator(runes []rune, target int) int {
	lo := target - snapWindow
	if lo < 0 {
		lo = 0
	}
	hi := target + snapWindow
	if hi > len(runes) {
		hi = len(runes)
	}

	// Prefer the terminator closest to the target.
	best := -1
	bestDist := snapWindow + 1
	for i := lo; i < hi; i++ {
		if isTerminator(runes[i]) {
			dist := i - target
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist {
				best = i
				bestDist = dist
			}
		}
	}
	if best == -1 {
		return -1
	}
	return best + 1
}
