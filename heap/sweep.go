package heap

// sweep walks allocated front to back: marked chunks survive with their
// mark bit cleared for the next cycle; unmarked chunks move to freed.
// Post-condition: every chunk remaining in allocated has Marked == false.
func sweep(allocated, freed *ChunkList, onSwept func(*Chunk)) {
	i := 0
	for i < allocated.Len() {
		c := allocated.At(i)
		if c.Marked {
			c.Marked = false
			i++
			continue
		}
		if onSwept != nil {
			onSwept(c)
		}
		freed.Append(c)
		allocated.RemoveAt(i)
	}
}
