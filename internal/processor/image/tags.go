package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// TagUpdate is the subset of descriptive metadata written into processed
// images: the title lands in an image-description tag, the description in
// a comment tag. No other metadata fields are written.
type TagUpdate struct {
	Title       string
	Description string
}

// WriteDescriptiveTags injects the supplied tags into an encoded image.
// JPEG output gets an EXIF ImageDescription segment and a COM segment,
// PNG output gets tEXt chunks.
func WriteDescriptiveTags(data []byte, format string, tags TagUpdate) ([]byte, error) {
	switch format {
	case FormatJPEG:
		return injectJPEGTags(data, tags)
	case FormatPNG:
		return injectPNGTags(data, tags)
	default:
		return nil, fmt.Errorf("no tag writer for format %q", format)
	}
}

// injectJPEGTags inserts metadata segments directly after the SOI marker.
func injectJPEGTags(data []byte, tags TagUpdate) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errors.New("not a JPEG stream")
	}

	var segments bytes.Buffer
	if tags.Title != "" {
		seg, err := exifImageDescriptionSegment(tags.Title)
		if err != nil {
			return nil, err
		}
		segments.Write(seg)
	}
	if tags.Description != "" {
		seg, err := jpegCommentSegment(tags.Description)
		if err != nil {
			return nil, err
		}
		segments.Write(seg)
	}

	out := make([]byte, 0, len(data)+segments.Len())
	out = append(out, data[:2]...)
	out = append(out, segments.Bytes()...)
	out = append(out, data[2:]...)
	return out, nil
}

// exifImageDescriptionSegment builds an APP1 segment holding a minimal
// big-endian TIFF structure with a single IFD0 ImageDescription entry.
func exifImageDescriptionSegment(title string) ([]byte, error) {
	value := append([]byte(title), 0x00)

	var tiff bytes.Buffer
	tiff.WriteString("MM")
	binary.Write(&tiff, binary.BigEndian, uint16(0x002A))
	binary.Write(&tiff, binary.BigEndian, uint32(8)) // IFD0 offset

	// IFD0: one entry, ImageDescription (0x010E), ASCII.
	binary.Write(&tiff, binary.BigEndian, uint16(1))
	binary.Write(&tiff, binary.BigEndian, uint16(0x010E))
	binary.Write(&tiff, binary.BigEndian, uint16(2))
	binary.Write(&tiff, binary.BigEndian, uint32(len(value)))
	if len(value) <= 4 {
		inline := make([]byte, 4)
		copy(inline, value)
		tiff.Write(inline)
		binary.Write(&tiff, binary.BigEndian, uint32(0)) // next IFD
	} else {
		// value sits right after the IFD: header(8) + count(2) + entry(12) + next(4)
		binary.Write(&tiff, binary.BigEndian, uint32(26))
		binary.Write(&tiff, binary.BigEndian, uint32(0)) // next IFD
		tiff.Write(value)
	}

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	return jpegSegment(0xE1, payload)
}

func jpegCommentSegment(comment string) ([]byte, error) {
	return jpegSegment(0xFE, []byte(comment))
}

// jpegSegment frames a payload as an FF-marker segment. The 16-bit length
// field includes itself, which caps the payload at 65533 bytes.
func jpegSegment(marker byte, payload []byte) ([]byte, error) {
	if len(payload)+2 > 0xFFFF {
		return nil, errors.New("JPEG segment payload too large")
	}
	seg := make([]byte, 0, len(payload)+4)
	seg = append(seg, 0xFF, marker)
	seg = append(seg, byte((len(payload)+2)>>8), byte(len(payload)+2))
	seg = append(seg, payload...)
	return seg, nil
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// injectPNGTags inserts tEXt chunks directly after the IHDR chunk.
func injectPNGTags(data []byte, tags TagUpdate) ([]byte, error) {
	if len(data) < len(pngSignature)+25 || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, errors.New("not a PNG stream")
	}

	// IHDR starts right after the signature: 4-byte length, 4-byte type,
	// data, 4-byte CRC.
	ihdrLen := binary.BigEndian.Uint32(data[8:12])
	ihdrEnd := 8 + 8 + int(ihdrLen) + 4
	if ihdrEnd > len(data) {
		return nil, errors.New("truncated PNG stream")
	}

	var chunks bytes.Buffer
	if tags.Title != "" {
		chunks.Write(pngTextChunk("Title", tags.Title))
	}
	if tags.Description != "" {
		chunks.Write(pngTextChunk("Description", tags.Description))
	}

	out := make([]byte, 0, len(data)+chunks.Len())
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunks.Bytes()...)
	out = append(out, data[ihdrEnd:]...)
	return out, nil
}

func pngTextChunk(keyword, text string) []byte {
	body := make([]byte, 0, len(keyword)+1+len(text))
	body = append(body, keyword...)
	body = append(body, 0x00)
	body = append(body, text...)

	chunk := make([]byte, 0, len(body)+12)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(body)))
	chunk = append(chunk, "tEXt"...)
	chunk = append(chunk, body...)

	crc := crc32.NewIEEE()
	crc.Write([]byte("tEXt"))
	crc.Write(body)
	chunk = binary.BigEndian.AppendUint32(chunk, crc.Sum32())
	return chunk
}
