package pcap

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func ethernetFrame(t *testing.T, src string, etherType layers.EthernetType, payload []byte) []byte {
	t.Helper()
	srcMAC, err := net.ParseMAC(src)
	if err != nil {
		t.Fatalf("parse mac: %v", err)
	}
	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: etherType,
	}
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, gopacket.Payload(payload)); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return buf.Bytes()
}

type timedFrame struct {
	at   time.Time
	data []byte
}

func writeCapture(t *testing.T, dir, name string, frames ...timedFrame) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create pcap: %v", err)
	}
	defer file.Close()

	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("write pcap header: %v", err)
	}
	for _, f := range frames {
		ci := gopacket.CaptureInfo{Timestamp: f.at, CaptureLength: len(f.data), Length: len(f.data)}
		if err := writer.WritePacket(ci, f.data); err != nil {
			t.Fatalf("write packet: %v", err)
		}
	}
	return path
}

func readTimestamps(t *testing.T, path string) []time.Time {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open merged: %v", err)
	}
	defer file.Close()
	reader, err := pcapgo.NewReader(file)
	if err != nil {
		t.Fatalf("read merged header: %v", err)
	}
	var out []time.Time
	for {
		_, ci, err := reader.ReadPacketData()
		if err != nil {
			break
		}
		out = append(out, ci.Timestamp)
	}
	return out
}

func TestMergeOrdersByTimestamp(t *testing.T) {
	dir := t.TempDir()
	base := time.Unix(1710410400, 0)
	gn := ethernetFrame(t, "02:00:00:00:00:0a", EtherTypeGeoNetworking, []byte{0x11, 0x00, 0x1a, 0x01})

	a := writeCapture(t, dir, "a.pcap",
		timedFrame{base, gn},
		timedFrame{base.Add(2 * time.Second), gn},
		timedFrame{base.Add(4 * time.Second), gn},
	)
	b := writeCapture(t, dir, "b.pcap",
		timedFrame{base.Add(1 * time.Second), gn},
		timedFrame{base.Add(3 * time.Second), gn},
	)
	out := filepath.Join(dir, "merged.pcap")

	stats, err := Merge([]string{a, b}, out)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Inputs != 2 || stats.Packets != 5 {
		t.Fatalf("stats = %+v, want 2 inputs and 5 packets", stats)
	}

	got := readTimestamps(t, out)
	if len(got) != 5 {
		t.Fatalf("merged %d packets, want 5", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Before(got[i-1]) {
			t.Fatalf("packet %d at %v precedes %v", i, got[i], got[i-1])
		}
	}
}

func TestMergeErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Merge(nil, filepath.Join(dir, "out.pcap")); err == nil {
		t.Error("expected error for no inputs")
	}
	if _, err := Merge([]string{filepath.Join(dir, "missing.pcap")}, filepath.Join(dir, "out.pcap")); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()
	base := time.Unix(1710410400, 0)
	path := writeCapture(t, dir, "mixed.pcap",
		timedFrame{base, ethernetFrame(t, "02:00:00:00:00:0a", EtherTypeGeoNetworking, []byte{1, 2, 3, 4})},
		timedFrame{base.Add(time.Second), ethernetFrame(t, "02:00:00:00:00:0b", EtherTypeGeoNetworking, []byte{1, 2, 3, 4})},
		timedFrame{base.Add(2 * time.Second), ethernetFrame(t, "02:00:00:00:00:0a", layers.EthernetTypeARP, make([]byte, 28))},
	)

	summary, err := Summarize(path)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Packets != 3 || summary.GeoNetworking != 2 {
		t.Errorf("packets=%d geonetworking=%d, want 3 and 2", summary.Packets, summary.GeoNetworking)
	}
	if summary.Sources["02:00:00:00:00:0a"] != 2 {
		t.Errorf("sources = %v", summary.Sources)
	}
	if !summary.First.Equal(base) || !summary.Last.Equal(base.Add(2*time.Second)) {
		t.Errorf("span = %v..%v", summary.First, summary.Last)
	}
}

func TestCollectPcapFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "day2")
	hidden := filepath.Join(dir, ".trash")
	for _, d := range []string{sub, hidden} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{
		filepath.Join(sub, "b.pcapng"),
		filepath.Join(sub, "c.CAP"),
		filepath.Join(dir, "a.pcap"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(hidden, "old.pcap"),
	} {
		if err := os.WriteFile(name, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := CollectPcapFiles(dir)
	if err != nil {
		t.Fatalf("CollectPcapFiles: %v", err)
	}
	want := []string{filepath.Join(dir, "a.pcap"), filepath.Join(sub, "b.pcapng"), filepath.Join(sub, "c.CAP")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}

	if _, err := CollectPcapFiles(filepath.Join(dir, "a.pcap")); err == nil {
		t.Error("a file root should be an error")
	}
}

func fakeTshark(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for tshark")
	}
	path := filepath.Join(t.TempDir(), "tshark")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write fake tshark: %v", err)
	}
	return path
}

func TestExportJSON(t *testing.T) {
	tshark := fakeTshark(t, `echo '[{"_source": {"layers": {}}}, {"_source": {"layers": {}}}]'`+"\n")
	dir := t.TempDir()
	input := filepath.Join(dir, "in.pcap")
	if err := os.WriteFile(input, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.json")

	n, err := ExportJSON(context.Background(), tshark, input, output)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if n != 2 {
		t.Errorf("records = %d, want 2", n)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("export not written: %v", err)
	}
}

func TestExportJSONFailures(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.pcap")
	if err := os.WriteFile(input, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	failing := fakeTshark(t, "echo 'bad capture' >&2\nexit 2\n")
	if _, err := ExportJSON(context.Background(), failing, input, filepath.Join(dir, "a.json")); err == nil {
		t.Error("expected error when tshark fails")
	}

	garbage := fakeTshark(t, "echo 'not json'\n")
	if _, err := ExportJSON(context.Background(), garbage, input, filepath.Join(dir, "b.json")); err == nil {
		t.Error("expected error for non-JSON output")
	}

	if _, err := ExportJSON(context.Background(), garbage, filepath.Join(dir, "missing.pcap"), filepath.Join(dir, "c.json")); err == nil {
		t.Error("expected error for missing capture")
	}
}

func TestResolveTsharkPathExplicit(t *testing.T) {
	tshark := fakeTshark(t, "echo 'TShark (Wireshark) 4.2.0.'\n")
	got, err := ResolveTsharkPath(tshark)
	if err != nil {
		t.Fatalf("ResolveTsharkPath: %v", err)
	}
	if got != tshark {
		t.Errorf("path = %q, want %q", got, tshark)
	}
	version, err := TsharkVersion(got)
	if err != nil {
		t.Fatalf("TsharkVersion: %v", err)
	}
	if version != "TShark (Wireshark) 4.2.0." {
		t.Errorf("version = %q", version)
	}

	if _, err := ResolveTsharkPath(filepath.Join(t.TempDir(), "nope", "tshark")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestWiresharkInstallPaths(t *testing.T) {
	t.Setenv("ProgramFiles", `C:\Program Files`)
	t.Setenv("ProgramFiles(x86)", "")
	win := wiresharkInstallPaths("windows")
	if len(win) != 1 || filepath.Base(filepath.Dir(win[0])) != "Wireshark" {
		t.Errorf("windows candidates = %v", win)
	}
	if got := wiresharkInstallPaths("darwin"); len(got) != 1 {
		t.Errorf("darwin candidates = %v", got)
	}

	err := tsharkNotFoundError("linux")
	if err == nil || !strings.Contains(err.Error(), "capture.tshark_path") {
		t.Errorf("not-found error = %v", err)
	}
}
