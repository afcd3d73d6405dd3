package stream

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/arloliu/mosaic/compress"
	"github.com/arloliu/mosaic/internal/hash"
	"github.com/arloliu/mosaic/section"
)

// Section names in file order.
const (
	SectionBlocks = "blocks"
	SectionTiles  = "tiles"
	SectionFrames = "frames"
)

var sectionNames = [3]string{SectionBlocks, SectionTiles, SectionFrames}

// SectionInfo describes one decompressed section.
type SectionInfo struct {
	Name   string
	Offset int    // offset within the decompressed body
	Data   []byte // raw section bytes
	Digest uint64 // xxHash64 of Data
}

// Report is the result of Inspect.
type Report struct {
	Header   section.StreamHeader
	Sections [3]SectionInfo
	Chunks   compress.ChunkStats
	Digest   uint64 // xxHash64 of the whole file, header included
	Stream   *Stream
}

// Inspect reads and fully validates a stream like Load, and reports the
// container details along with the decoded stream.
func Inspect(r io.Reader, opts ...StreamOption) (*Report, error) {
	cfg, err := newStreamConfig(opts)
	if err != nil {
		return nil, err
	}

	digest := hash.NewDigest()
	d, err := decode(io.TeeReader(r, digest), cfg)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Header: d.header,
		Chunks: d.stats,
		Digest: digest.Sum64(),
		Stream: d.stream,
	}
	start := 0
	for i, end := range d.bounds {
		data := d.raw[start:end]
		rep.Sections[i] = SectionInfo{
			Name:   sectionNames[i],
			Offset: start,
			Data:   data,
			Digest: hash.Sum(data),
		}
		start = end
	}

	return rep, nil
}

// WriteText writes a human-readable summary of the report.
func (rep *Report) WriteText(w io.Writer) error {
	h := rep.Header
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "frame size\t%s\n", rep.Stream.Size())
	fmt.Fprintf(tw, "frames\t%d\n", h.FrameCount)
	fmt.Fprintf(tw, "tiles\t%d (%d-bit refs)\n", h.TileCount, h.TileBits)
	fmt.Fprintf(tw, "blocks\t%d (%d-bit refs)\n", h.BlockCount, h.BlockBits)
	fmt.Fprintf(tw, "uncompressed\t%d bytes\n", h.UncompressedSize)
	fmt.Fprintf(tw, "compressed\t%d bytes\n", h.CompressedSize)
	fmt.Fprintf(tw, "chunks\t%d (%d compressed, %d stored)\n",
		rep.Chunks.Chunks, rep.Chunks.Compressed, rep.Chunks.Stored())
	fmt.Fprintf(tw, "ratio\t%.3f (%.1f%% saved)\n",
		rep.Chunks.CompressionRatio(), rep.Chunks.SpaceSavings())
	fmt.Fprintf(tw, "xxh64\t%016x\n", rep.Digest)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "section\toffset\tsize\txxh64")
	for _, sec := range rep.Sections {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%016x\n", sec.Name, sec.Offset, len(sec.Data), sec.Digest)
	}

	return tw.Flush()
}
