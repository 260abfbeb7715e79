// Package ogg implements a minimal, lazy, single-pass Ogg container page
// reader. It knows nothing about Opus or any other codec carried inside the
// pages — it only understands the Ogg page framing described in RFC 3533.
package ogg

// headerLen is the size in bytes of an Ogg page header once the 4-byte
// "OggS" capture pattern has been stripped off: version(1) + header_type(1)
// + granule_position(8) + serial_number(4) + page_sequence(4) + checksum(4)
// + page_segments(1) = 23.
const headerLen = 23

// magic is the capture pattern every Ogg page begins with.
const magic = "OggS"

// Page is one parsed Ogg page. Header is the 23-byte header remainder after
// the "OggS" magic (version, header type flag, granule position, serial
// number, sequence number, checksum, and segment count). Segtable and Data
// are the page's segment table and payload, exactly as they appeared on the
// wire.
type Page struct {
	Header   [headerLen]byte
	Segtable []byte
	Data     []byte
}

// Flag returns the header_type flag byte — byte 5 of the original page
// header (byte index 1 of Header, since the 4-byte magic has been
// stripped). Bit value 2 marks the beginning of a logical bitstream (BOS).
func (p *Page) Flag() byte {
	return p.Header[1]
}

// IsBOS reports whether this page is the first page of a logical
// bitstream.
func (p *Page) IsBOS() bool {
	return p.Flag()&0x02 != 0
}

// Raw reconstructs the exact on-wire bytes of the page, including the
// "OggS" magic. For any page returned by Reader.ReadPage on input b, Raw()
// is a byte-exact copy of b at the page's original offset.
func (p *Page) Raw() []byte {
	out := make([]byte, 0, len(magic)+headerLen+len(p.Segtable)+len(p.Data))
	out = append(out, magic...)
	out = append(out, p.Header[:]...)
	out = append(out, p.Segtable...)
	out = append(out, p.Data...)
	return out
}

// Packet is one packet extracted from a page's Data by splitting at
// segment-table boundaries.
type Packet struct {
	Data      []byte
	Continued bool
}

// IterPackets splits Data into packets according to Segtable: a run of
// consecutive 255-valued segments (plus the segment that terminates the run,
// if any) forms a single packet whose final segment had length < 255.
// Continued reports whether the packet's last segment was exactly 255 bytes
// — meaning the packet itself continues into the next page and the caller
// must stitch it with that page's first packet to get the complete payload.
func (p *Page) IterPackets() []Packet {
	var packets []Packet
	var cur []byte
	offset := 0

	for _, segLen := range p.Segtable {
		n := int(segLen)
		cur = append(cur, p.Data[offset:offset+n]...)
		offset += n

		if n < 255 {
			packets = append(packets, Packet{Data: cur, Continued: false})
			cur = nil
		}
	}

	// A trailing run of 255-byte segments with nothing to terminate it
	// means the last packet on this page continues onto the next page.
	if len(cur) > 0 || (len(p.Segtable) > 0 && p.Segtable[len(p.Segtable)-1] == 255) {
		packets = append(packets, Packet{Data: cur, Continued: true})
	}

	return packets
}

// PacketBytes concatenates the Data of every packet on the page, discarding
// packet boundaries. This is what the Ogg Splicer uses to build the payload
// of a rebroadcast frame: the splicer cares about page boundaries, not
// packet boundaries.
func (p *Page) PacketBytes() []byte {
	out := make([]byte, 0, len(p.Data))
	for _, pk := range p.IterPackets() {
		out = append(out, pk.Data...)
	}
	return out
}
