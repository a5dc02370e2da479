/*
Package blockdiff copies a source stream onto an existing target stream,
writing only the blocks that differ.

	+----------+        +----------+
	|  source  |        |  target  |
	| (read)   |        | (r/w)    |
	+----+-----+        +-----+----+
	     |    block @ offset  |
	     +--------+  +--------+
	              |  |
	          +---+--+---+
	          | compare  |---- equal ----> skip
	          +----+-----+
	               |
	            differs
	               |
	          rewrite min(srcRead, dstRead) bytes

🎯 Purpose:
- Minimize writes to targets where writes are expensive (disk images, flash)
- Report progress as the source is consumed

🔄 Flow:
1. Seek both streams to the shared offset
2. Read one block from each
3. Compare up to the shorter read
4. Rewrite the block when any byte differs
5. Advance the offset and repeat until the source is exhausted

📝 Notes:
- The target is never created, truncated or extended
- Buffers are allocated once in New and reused for every block
- Loop I/O errors end the run like end of input

🔍 Example:

	c, err := blockdiff.New(blockdiff.Options{BlockSize: 4096, Progress: os.Stdout})
	if err != nil {
		return err
	}
	stats, err := c.Run(ctx, src, dst)
*/
package blockdiff
