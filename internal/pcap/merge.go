package pcap

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"
)

// MergeStats reports what Merge wrote.
type MergeStats struct {
	Inputs  int
	Packets int
}

type mergeInput struct {
	path   string
	handle *pcap.Handle
	data   []byte
	ci     gopacket.CaptureInfo
	done   bool
}

func (in *mergeInput) advance() error {
	data, ci, err := in.handle.ReadPacketData()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			in.done = true
			return nil
		}
		return fmt.Errorf("read %s: %w", in.path, err)
	}
	in.data, in.ci = data, ci
	return nil
}

// Merge writes the packets of every input into one pcap file ordered by
// capture timestamp. Ties keep input order. All inputs must share a link
// type.
func Merge(inputs []string, output string) (MergeStats, error) {
	if len(inputs) == 0 {
		return MergeStats{}, fmt.Errorf("merge: no input captures")
	}

	var open []*mergeInput
	defer func() {
		for _, in := range open {
			in.handle.Close()
		}
	}()

	var linkType layers.LinkType
	snapLen := 0
	for i, path := range inputs {
		handle, err := pcap.OpenOffline(path)
		if err != nil {
			return MergeStats{}, fmt.Errorf("open pcap %s: %w", path, err)
		}
		in := &mergeInput{path: path, handle: handle}
		open = append(open, in)
		if i == 0 {
			linkType = handle.LinkType()
		} else if handle.LinkType() != linkType {
			return MergeStats{}, fmt.Errorf("merge: %s has link type %s, expected %s", path, handle.LinkType(), linkType)
		}
		if s := handle.SnapLen(); s > snapLen {
			snapLen = s
		}
		if err := in.advance(); err != nil {
			return MergeStats{}, err
		}
	}
	if snapLen <= 0 {
		snapLen = 65535
	}

	out, err := os.Create(output)
	if err != nil {
		return MergeStats{}, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	writer := pcapgo.NewWriter(out)
	if err := writer.WriteFileHeader(uint32(snapLen), linkType); err != nil {
		return MergeStats{}, fmt.Errorf("write pcap header: %w", err)
	}

	stats := MergeStats{Inputs: len(inputs)}
	for {
		next := earliest(open)
		if next == nil {
			break
		}
		if err := writer.WritePacket(next.ci, next.data); err != nil {
			return stats, fmt.Errorf("write packet: %w", err)
		}
		stats.Packets++
		if err := next.advance(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func earliest(inputs []*mergeInput) *mergeInput {
	var best *mergeInput
	for _, in := range inputs {
		if in.done {
			continue
		}
		if best == nil || in.ci.Timestamp.Before(best.ci.Timestamp) {
			best = in
		}
	}
	return best
}
