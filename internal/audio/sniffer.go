package audio

import "bytes"

// Format describes a detected audio container
type Format struct {
	Name        string // short name, e.g. "wav"
	Extension   string // file extension including the dot
	ContentType string // MIME type for outbound provider requests
}

// Known container formats
var (
	FormatWAV  = Format{Name: "wav", Extension: ".wav", ContentType: "audio/wav"}
	FormatWebM = Format{Name: "webm", Extension: ".webm", ContentType: "audio/webm"}
	FormatOgg  = Format{Name: "ogg", Extension: ".ogg", ContentType: "audio/ogg"}
	FormatMP3  = Format{Name: "mp3", Extension: ".mp3", ContentType: "audio/mpeg"}
	FormatM4A  = Format{Name: "m4a", Extension: ".m4a", ContentType: "audio/mp4"}

	// FormatUnknown is returned when no signature matches. Browser uploads
	// without an extension are most often MediaRecorder WebM, so that is
	// the extension hint we fall back to.
	FormatUnknown = Format{Name: "unknown", Extension: ".webm", ContentType: "application/octet-stream"}
)

// Container signatures, matched against the leading bytes of the payload
var (
	riffMagic = []byte("RIFF")
	waveMagic = []byte("WAVE")
	ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3} // WebM/Matroska EBML header
	oggMagic  = []byte("OggS")
	id3Magic  = []byte("ID3")
	ftypMagic = []byte("ftyp") // at offset 4 in MP4/M4A
)

// Detect inspects the leading bytes of an audio payload and returns the
// container format. The second return value reports whether a known
// signature matched.
func Detect(data []byte) (Format, bool) {
	if len(data) < 12 {
		return FormatUnknown, false
	}

	switch {
	case bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], waveMagic):
		return FormatWAV, true
	case bytes.HasPrefix(data, ebmlMagic):
		return FormatWebM, true
	case bytes.HasPrefix(data, oggMagic):
		return FormatOgg, true
	case bytes.HasPrefix(data, id3Magic):
		return FormatMP3, true
	case bytes.Equal(data[4:8], ftypMagic):
		return FormatM4A, true
	case data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// Bare MPEG audio frame sync, no ID3 tag
		return FormatMP3, true
	}

	return FormatUnknown, false
}
