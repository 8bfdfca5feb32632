package synth

import (
	"encoding/binary"
	"fmt"
	"time"
)

// WAV container constants: mono, 16-bit PCM, 44-byte canonical header.
const (
	wavChannels      = 1
	wavBitsPerSample = 16
	wavHeaderSize    = 44
)

// Header is the decoded fmt/data description of a WAV file.
type Header struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataSize      int
}

// Duration derives the audio length from the header fields.
func (h Header) Duration() time.Duration {
	bytesPerSecond := h.SampleRate * h.Channels * h.BitsPerSample / 8
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(float64(h.DataSize) / float64(bytesPerSecond) * float64(time.Second))
}

// Encode wraps normalized samples in a mono 16-bit WAV container.
func Encode(samples []float64, sampleRate int) []byte {
	dataSize := len(samples) * 2
	b := make([]byte, 0, wavHeaderSize+dataSize)

	b = append(b, 'R', 'I', 'F', 'F')
	b = binary.LittleEndian.AppendUint32(b, uint32(dataSize+36))
	b = append(b, 'W', 'A', 'V', 'E')

	b = append(b, 'f', 'm', 't', ' ')
	b = binary.LittleEndian.AppendUint32(b, 16) // fmt chunk size
	b = binary.LittleEndian.AppendUint16(b, 1)  // PCM
	b = binary.LittleEndian.AppendUint16(b, wavChannels)
	b = binary.LittleEndian.AppendUint32(b, uint32(sampleRate))
	byteRate := sampleRate * wavChannels * wavBitsPerSample / 8
	b = binary.LittleEndian.AppendUint32(b, uint32(byteRate))
	blockAlign := wavChannels * wavBitsPerSample / 8
	b = binary.LittleEndian.AppendUint16(b, uint16(blockAlign))
	b = binary.LittleEndian.AppendUint16(b, wavBitsPerSample)

	b = append(b, 'd', 'a', 't', 'a')
	b = binary.LittleEndian.AppendUint32(b, uint32(dataSize))

	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		b = binary.LittleEndian.AppendUint16(b, uint16(int16(s*32767)))
	}
	return b
}

// ParseHeader decodes the canonical 44-byte WAV header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < wavHeaderSize {
		return Header{}, fmt.Errorf("synth: wav too short: %d bytes", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Header{}, fmt.Errorf("synth: not a wav file")
	}
	if string(b[12:16]) != "fmt " || string(b[36:40]) != "data" {
		return Header{}, fmt.Errorf("synth: unsupported wav layout")
	}
	h := Header{
		Channels:      int(binary.LittleEndian.Uint16(b[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(b[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(b[34:36])),
		DataSize:      int(binary.LittleEndian.Uint32(b[40:44])),
	}
	if h.Channels == 0 || h.SampleRate == 0 || h.BitsPerSample == 0 {
		return Header{}, fmt.Errorf("synth: invalid wav header")
	}
	return h, nil
}

// DecodePCM returns the header and the raw little-endian PCM payload.
func DecodePCM(b []byte) (Header, []byte, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return Header{}, nil, err
	}
	data := b[wavHeaderSize:]
	if len(data) > h.DataSize {
		data = data[:h.DataSize]
	}
	return h, data, nil
}

// DecodeSamples returns the header and the payload as normalized mono
// samples. Stereo input is averaged to mono.
func DecodeSamples(b []byte) (Header, []float64, error) {
	h, data, err := DecodePCM(b)
	if err != nil {
		return Header{}, nil, err
	}
	if h.BitsPerSample != 16 {
		return Header{}, nil, fmt.Errorf("synth: unsupported bit depth %d", h.BitsPerSample)
	}
	frame := 2 * h.Channels
	samples := make([]float64, 0, len(data)/frame)
	for i := 0; i+frame <= len(data); i += frame {
		var sum float64
		for ch := 0; ch < h.Channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(data[i+2*ch:]))
			sum += float64(v) / 32768.0
		}
		samples = append(samples, sum/float64(h.Channels))
	}
	return h, samples, nil
}
