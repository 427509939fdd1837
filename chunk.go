package charpic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// pngChunk is one chunk of a PNG-family (PNG, APNG, MNG) datastream.
type pngChunk struct {
	typ  string
	data []byte
}

// maxChunkLength is the largest chunk length the PNG family allows.
const maxChunkLength = 1<<31 - 1

// readChunks splits a PNG-family datastream into chunks, verifying the
// signature and every CRC. Reading stops after the terminator chunk.
func readChunks(data []byte, signature, terminator string) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, []byte(signature)) {
		return nil, fmt.Errorf("invalid signature")
	}
	var chunks []pngChunk
	p := len(signature)
	for {
		if p+8 > len(data) {
			return nil, fmt.Errorf("truncated chunk header at offset %d", p)
		}
		length := binary.BigEndian.Uint32(data[p:])
		if length > maxChunkLength || uint64(p)+12+uint64(length) > uint64(len(data)) {
			return nil, fmt.Errorf("truncated chunk at offset %d", p)
		}
		n := int(length)
		typ := string(data[p+4 : p+8])
		body := data[p+8 : p+8+n]
		crc := binary.BigEndian.Uint32(data[p+8+n:])
		if crc32.ChecksumIEEE(data[p+4:p+8+n]) != crc {
			return nil, fmt.Errorf("checksum mismatch in %s chunk", typ)
		}
		chunks = append(chunks, pngChunk{typ: typ, data: body})
		p += 12 + n
		if typ == terminator {
			return chunks, nil
		}
	}
}

// writeChunk appends one chunk with its CRC.
func writeChunk(buf *bytes.Buffer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	buf.Write(hdr[:])
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	buf.Write(sum[:])
}

// buildPNG assembles a standalone PNG stream from an IHDR template resized
// to width x height, the chunks shared by every frame and the frame's
// image data.
func buildPNG(ihdr []byte, width, height int, shared []pngChunk, idat [][]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(pngSignature)
	hdr := append([]byte(nil), ihdr...)
	binary.BigEndian.PutUint32(hdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(height))
	writeChunk(&buf, "IHDR", hdr)
	for _, c := range shared {
		writeChunk(&buf, c.typ, c.data)
	}
	for _, d := range idat {
		writeChunk(&buf, "IDAT", d)
	}
	writeChunk(&buf, "IEND", nil)
	return buf.Bytes()
}
