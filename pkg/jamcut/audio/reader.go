package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// wavFormat holds the fields of the fmt chunk we care about.
type wavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// readRIFFHeader reads and validates the RIFF/WAVE header (12 bytes).
func readRIFFHeader(f *os.File) error {
	var riff [4]byte
	var fileSize uint32
	var wave [4]byte

	if err := binary.Read(f, binary.LittleEndian, &riff); err != nil {
		return fmt.Errorf("reading RIFF header: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &fileSize); err != nil {
		return fmt.Errorf("reading RIFF size: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &wave); err != nil {
		return fmt.Errorf("reading WAVE id: %w", err)
	}

	if string(riff[:]) != "RIFF" || string(wave[:]) != "WAVE" {
		return errors.New("not a WAV/RIFF file")
	}
	return nil
}

// readFmtChunk decodes the fmt chunk, skipping any trailing extension bytes.
func readFmtChunk(f *os.File, chunkSize uint32) (*wavFormat, error) {
	var fmtc struct {
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}
	if err := binary.Read(f, binary.LittleEndian, &fmtc); err != nil {
		return nil, fmt.Errorf("reading fmt chunk: %w", err)
	}

	if remaining := int(chunkSize) - 16; remaining > 0 {
		if _, err := f.Seek(int64(remaining), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("seeking past fmt extras: %w", err)
		}
	}

	return &wavFormat{
		AudioFormat:   fmtc.AudioFormat,
		NumChannels:   fmtc.NumChannels,
		SampleRate:    fmtc.SampleRate,
		BitsPerSample: fmtc.BitsPerSample,
	}, nil
}

// scanWavChunks walks the chunk list until both fmt and data are found.
// Unknown chunks (LIST, INFO, junk) are skipped.
func scanWavChunks(f *os.File) (*wavFormat, []byte, error) {
	var format *wavFormat
	var data []byte

	for format == nil || data == nil {
		var chunkID [4]byte
		var chunkSize uint32

		if err := binary.Read(f, binary.LittleEndian, &chunkID); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("reading chunk header: %w", err)
		}
		if err := binary.Read(f, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, fmt.Errorf("reading chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			fc, err := readFmtChunk(f, chunkSize)
			if err != nil {
				return nil, nil, err
			}
			format = fc
		case "data":
			data = make([]byte, chunkSize)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, nil, fmt.Errorf("reading data chunk: %w", err)
			}
		default:
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, nil, fmt.Errorf("skipping chunk %s: %w", chunkID, err)
			}
		}

		// Chunks are word-aligned; odd sizes carry a pad byte.
		if chunkSize%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return nil, nil, fmt.Errorf("seeking pad byte: %w", err)
			}
		}
	}

	if format == nil {
		return nil, nil, errors.New("fmt chunk not found")
	}
	if data == nil {
		return nil, nil, errors.New("data chunk not found")
	}
	return format, data, nil
}

// decodeInt16Samples converts little-endian PCM bytes to normalized float64.
func decodeInt16Samples(data []byte) ([]float64, error) {
	const scale = 1.0 / 32768.0

	int16Buf := make([]int16, len(data)/2)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, int16Buf); err != nil {
		return nil, fmt.Errorf("decoding PCM samples: %w", err)
	}

	out := make([]float64, len(int16Buf))
	for i, s := range int16Buf {
		out[i] = float64(s) * scale
	}
	return out, nil
}

// ReadWAV reads a 16-bit PCM WAV file into a Buffer, preserving the channel
// layout (mono or stereo). It does not assume a canonical 44-byte header.
// All failures wrap ErrDecode.
func ReadWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	if err := readRIFFHeader(f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	format, data, err := scanWavChunks(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	if format.AudioFormat != 1 {
		return nil, fmt.Errorf("%w: %s: unsupported WAV audio format %d (PCM only)", ErrDecode, path, format.AudioFormat)
	}
	if format.BitsPerSample != 16 {
		return nil, fmt.Errorf("%w: %s: unsupported bit depth %d (16-bit only)", ErrDecode, path, format.BitsPerSample)
	}
	if format.NumChannels != 1 && format.NumChannels != 2 {
		return nil, fmt.Errorf("%w: %s: unsupported channel count %d", ErrDecode, path, format.NumChannels)
	}

	samples, err := decodeInt16Samples(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	buf := &Buffer{
		Samples:    samples,
		SampleRate: int(format.SampleRate),
		Channels:   int(format.NumChannels),
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return buf, nil
}
