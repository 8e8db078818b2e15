package pcap

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// EtherTypeGeoNetworking is the EtherType of ITS-G5 GeoNetworking.
const EtherTypeGeoNetworking = layers.EthernetType(0x8947)

// CaptureSummary describes a raw capture before decoding.
type CaptureSummary struct {
	Path          string
	LinkType      string
	Packets       int
	GeoNetworking int
	First         time.Time
	Last          time.Time
	Sources       map[string]int
}

// Summarize counts packets, GeoNetworking frames and source addresses.
func Summarize(path string) (*CaptureSummary, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("open pcap file: %w", err)
	}
	defer handle.Close()

	summary := &CaptureSummary{
		Path:     path,
		LinkType: handle.LinkType().String(),
		Sources:  make(map[string]int),
	}
	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		summary.Packets++
		ts := packet.Metadata().Timestamp
		if summary.First.IsZero() || ts.Before(summary.First) {
			summary.First = ts
		}
		if ts.After(summary.Last) {
			summary.Last = ts
		}

		ethLayer := packet.Layer(layers.LayerTypeEthernet)
		if ethLayer == nil {
			continue
		}
		eth, _ := ethLayer.(*layers.Ethernet)
		summary.Sources[eth.SrcMAC.String()]++
		if eth.EthernetType == EtherTypeGeoNetworking {
			summary.GeoNetworking++
		}
	}
	return summary, nil
}
