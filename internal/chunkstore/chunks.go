package chunkstore

// targetChunkElems is the upper bound on elements per chunk the adjustment
// aims for.
const targetChunkElems = 1_000_000

// AdjustChunkSizes grows the file chunking towards targetChunkElems so a cube
// read issues fewer remote requests. The time dimension is never rechunked.
func AdjustChunkSizes(chunks, sizes []int, timeDim int) []int {
	sumSizes := prod(sizes)
	if timeDim >= 0 {
		sumSizes = sumSizes / sizes[timeDim] * chunks[timeDim]
		if sumSizes < targetChunkElems {
			best := append([]int(nil), sizes...)
			best[timeDim] = chunks[timeDim]
			return best
		}
	}
	if sumSizes < targetChunkElems {
		return append([]int(nil), sizes...)
	}

	// candidate chunk sizes per dimension: multiples of the file chunking,
	// preferring those that divide the dimension evenly
	valid := make([][]int, len(chunks))
	for i := range chunks {
		chunk, size := chunks[i], sizes[i]
		if i == timeDim {
			valid[i] = []int{chunk}
			continue
		}
		if size%chunk > 0 {
			if prod(chunks)/chunk*size < targetChunkElems {
				valid[i] = []int{size}
			} else {
				for r := chunk; r <= size; r += chunk {
					valid[i] = append(valid[i], r)
				}
			}
			continue
		}
		for r := chunk; r <= size; r += chunk {
			if size%r == 0 {
				valid[i] = append(valid[i], r)
			}
		}
	}

	best, _ := bestChunks(chunks, valid, append([]int(nil), chunks...), 0, 0, timeDim)
	return best
}

// bestChunks recursively picks the chunking with the largest element count
// not exceeding targetChunkElems. Ties go to the chunking whose largest
// non-time chunk is smallest.
func bestChunks(chunks []int, valid [][]int, best []int, bestSize, index, timeDim int) ([]int, int) {
	for _, candidate := range valid[index] {
		test := append([]int(nil), chunks...)
		test[index] = candidate
		var testSize int
		if index < len(chunks)-1 {
			test, testSize = bestChunks(test, valid, best, bestSize, index+1, timeDim)
		} else {
			testSize = prod(test)
			if testSize > targetChunkElems {
				// candidates are ascending, no point trying larger ones
				break
			}
		}
		if testSize > bestSize {
			bestSize = testSize
			best = append([]int(nil), test...)
		} else if testSize == bestSize && maxExcept(test, timeDim) < maxExcept(best, timeDim) {
			best = append([]int(nil), test...)
		}
	}
	return best, bestSize
}

func maxExcept(values []int, skip int) int {
	m := 0
	for i, v := range values {
		if i == skip {
			continue
		}
		if v > m {
			m = v
		}
	}
	return m
}

func prod(values []int) int {
	p := 1
	for _, v := range values {
		p *= v
	}
	return p
}
