package heap

// tryRecycleChunks walks freed in order and satisfies size from the first
// chunk whose Size is >= the request. An exact match moves the whole chunk
// back to allocated. A strict overshoot splits the chunk: the requested
// prefix moves to allocated, and a complement chunk of (original size -
// size) bytes is appended to freed.
//
// The complement's start is chunk.Start + size (the requested size), not
// chunk.Start + chunk.Size (the original size): the complement begins
// right after the bytes just handed out, so using the original size would
// push it past the chunk's end and overlap nothing useful.
func tryRecycleChunks(allocated, freed *ChunkList, size uintptr) *Chunk {
	for i := 0; i < freed.Len(); i++ {
		c := freed.At(i)
		switch {
		case c.Size > size:
			freed.RemoveAt(i)
			complementStart := c.Start + size
			complementSize := c.Size - size
			c.Size = size
			allocated.Append(c)
			freed.Insert(complementStart, complementSize)
			return c
		case c.Size == size:
			freed.RemoveAt(i)
			allocated.Append(c)
			return c
		}
	}
	return nil
}
