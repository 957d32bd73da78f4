package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// NewWavBuffer wraps 16-bit PCM in a RIFF/WAVE header, the format the
// file-mode STT adapters upload to their providers.
func NewWavBuffer(pcm []byte, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))           
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint16(1))            
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))   
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) 
	binary.Write(buf, binary.LittleEndian, uint16(2))            
	binary.Write(buf, binary.LittleEndian, uint16(16))           

	
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// SamplesToWAV encodes float32 PCM samples, clamped to [-1, 1], as a
// 16-bit mono WAV byte slice. No adapter in this repository calls it; the
// Coqui adapter decodes its server's WAV with DecodeWAV.
func SamplesToWAV(samples []float32, sampleRate int) []byte {
	dataLen := len(samples) * 2
	totalLen := 44 + dataLen

	buf := make([]byte, totalLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(totalLen-8))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		clamped := float32(math.Max(-1.0, math.Min(1.0, float64(s))))
		val := int16(clamped * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(val))
	}

	return buf
}

// DecodeWAV parses a RIFF/WAVE container down to its 16-bit PCM payload,
// sample rate, and channel count, skipping any chunk other than "fmt " and
// "data" it doesn't recognize. Used by the Coqui TTS adapter, whose local
// server returns a WAV file rather than a declared-rate raw PCM stream.
func DecodeWAV(data []byte) (pcm []byte, sampleRate int, channels int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("audio: decode wav: missing RIFF/WAVE header")
	}

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, fmt.Errorf("audio: decode wav: fmt chunk too short")
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			pcm = data[body : body+size]
		}

		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if pcm == nil || sampleRate == 0 {
		return nil, 0, 0, fmt.Errorf("audio: decode wav: missing fmt or data chunk")
	}
	if channels == 0 {
		channels = 1
	}
	return pcm, sampleRate, channels, nil
}
