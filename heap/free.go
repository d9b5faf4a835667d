package heap

import "sort"

// free reclaims or compacts freed after a sweep, per two policies keyed on
// the freed list's size:
//
//   - above freeThresh: drain freed wholesale, destroying every chunk's
//     metadata. used is not rolled back -- it stays a monotonic high-water
//     mark. Recomputing it would need a full scan over allocated and freed
//     on every drain, and leaving it as-is only ever makes the used+size
//     capacity check more conservative, never less, so it can't let an
//     allocation overrun the region.
//   - otherwise, if freed is non-empty: run freeOverlap, which sorts by
//     Start ascending and drops redundant overlapping chunks.
func free(freed *ChunkList, freeThresh int, onFreed func(*Chunk)) {
	if freed.Len() > freeThresh {
		for i := 0; i < freed.Len(); i++ {
			if onFreed != nil {
				onFreed(freed.At(i))
			}
		}
		freed.Reset()
		return
	}
	if freed.Len() > 0 {
		freeOverlap(freed, onFreed)
	}
}

// freeOverlap sorts freed by Start ascending and removes chunks that
// overlap a chunk at a lower address, preferring the earlier entry. It
// sorts explicitly rather than trust caller order, since a caller that
// inserts chunks out of address order would otherwise make the
// survivor-scan below miss overlaps that only show up once sorted.
func freeOverlap(freed *ChunkList, onFreed func(*Chunk)) {
	chunks := make([]*Chunk, freed.Len())
	for i := 0; i < freed.Len(); i++ {
		chunks[i] = freed.At(i)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Start < chunks[j].Start })

	survivors := make([]*Chunk, 0, len(chunks))
	survivors = append(survivors, chunks[0])
	for i := 1; i < len(chunks); i++ {
		prev := survivors[len(survivors)-1]
		next := chunks[i]
		if next.Start >= prev.Start+prev.Size {
			survivors = append(survivors, next)
		} else if onFreed != nil {
			onFreed(next)
		}
	}

	freed.Reset()
	for _, c := range survivors {
		freed.Append(c)
	}
}
