// Package errs defines the sentinel errors returned across mosaic packages.
//
// Callers match them with errors.Is; producers wrap them with detail:
//
//	return fmt.Errorf("%w: chunk %d declares %d bytes", errs.ErrSizeMismatch, i, n)
package errs

import "errors"

var (
	// ErrCapacityExceeded indicates a store or frame no longer fits the addressable index space.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrSizeMismatch indicates declared and actual sizes disagree.
	ErrSizeMismatch = errors.New("size mismatch")
	// ErrInvalidHeaderSize indicates the stream header is shorter than required.
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrInvalidChunkHeader indicates a chunk header declares impossible lengths.
	ErrInvalidChunkHeader = errors.New("invalid chunk header")
	// ErrTruncated indicates the input ended before a section was complete.
	ErrTruncated = errors.New("truncated data")
	// ErrInteractiveOutput indicates binary output was directed at a terminal.
	ErrInteractiveOutput = errors.New("refusing to write binary stream to a terminal")
	// ErrInvalidFrameSize indicates frame dimensions are not a positive multiple of the tile size.
	ErrInvalidFrameSize = errors.New("invalid frame size")
	// ErrInvalidFrameBuffer indicates a pixel buffer does not match the frame dimensions.
	ErrInvalidFrameBuffer = errors.New("invalid frame buffer")
	// ErrDanglingRef indicates a remap table resolves a live reference to nothing.
	ErrDanglingRef = errors.New("dangling reference")
	// ErrInvalidRef indicates a reference points outside its store.
	ErrInvalidRef = errors.New("invalid reference")
	// ErrInvalidCompression indicates an unknown compression type.
	ErrInvalidCompression = errors.New("invalid compression type")
	// ErrEncoderFinished indicates frames were added after the encoder was optimized or saved.
	ErrEncoderFinished = errors.New("encoder already finished")
)
