package audio

import (
	"bytes"
	"testing"
)

func TestNewWavBuffer(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	sampleRate := 44100
	wav := NewWavBuffer(pcm, sampleRate)

	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Errorf("Expected RIFF prefix")
	}

	if !bytes.Contains(wav, []byte("WAVE")) {
		t.Errorf("Expected WAVE format identifier")
	}

	expectedLen := 44 + len(pcm)
	if len(wav) != expectedLen {
		t.Errorf("Expected length %d, got %d", expectedLen, len(wav))
	}
}

func TestDecodeWAVRoundTrip(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	wav := NewWavBuffer(pcm, 24000)

	gotPCM, rate, channels, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if !bytes.Equal(gotPCM, pcm) {
		t.Errorf("pcm mismatch: got %v, want %v", gotPCM, pcm)
	}
	if rate != 24000 {
		t.Errorf("rate = %d, want 24000", rate)
	}
	if channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}
}

func TestDecodeWAVRejectsBadHeader(t *testing.T) {
	if _, _, _, err := DecodeWAV([]byte("not a wav file")); err == nil {
		t.Error("expected error for malformed header")
	}
}
