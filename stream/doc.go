// Package stream ties the stores and the frame codec into a complete
// animation stream and reads and writes its container.
//
// # Encoding
//
// An Encoder thresholds 8-bit frames into 1bpp tiles, deduplicates them
// in the tile and block stores and records each frame as tile references:
//
//	enc, err := stream.NewEncoder(stream.WithMaxError(2), stream.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if _, err := enc.Consume(ctx, src, nil); err != nil {
//	    return err
//	}
//	if err := enc.Save(out); err != nil {
//	    return err
//	}
//
// Save runs Optimize first: approximate block merging, tile dedupe,
// optional approximate tile merging and compaction of both stores.
//
// # Decoding
//
// Load reads a container back into a Stream whose frames can be rendered
// or played:
//
//	s, err := stream.Load(f, stream.WithStreamCompression(format.CompressionLZ4))
//	if err != nil {
//	    return err
//	}
//	buf := make([]byte, s.Size().Pixels())
//	for i := range s.FrameCount() {
//	    if err := s.Render(i, buf); err != nil {
//	        return err
//	    }
//	}
//
// The container records neither the frame size nor the chunk codec, so
// Load and Inspect take the same settings the writer used.
//
// # Container layout
//
// A 24-byte big-endian header (see section.StreamHeader) is followed by
// the block, tile and frame sections, each split into chunks of at most
// 32 KiB. A chunk is stored compressed only when that makes it smaller.
package stream
