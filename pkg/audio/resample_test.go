package audio

import "testing"

func TestResampleNoOpWhenRatesMatch(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("expected unchanged length, got %d", len(out))
	}
}

func TestResampleDownsamplesLength(t *testing.T) {
	in := make([]float32, 48000)
	out := Resample(in, 48000, 16000)
	if len(out) != 16000 {
		t.Fatalf("Resample length = %d, want 16000", len(out))
	}
}

func TestResamplePCM16RoundTripPreservesRoughShape(t *testing.T) {
	pcm := make([]byte, 0, 24000*2)
	for i := 0; i < 24000; i++ {
		pcm = append(pcm, 0x00, 0x10) // constant non-zero sample
	}
	out := ResamplePCM16(pcm, 24000, 48000)
	if len(out) != len(pcm)*2 {
		t.Fatalf("ResamplePCM16 upsampled length = %d, want %d", len(out), len(pcm)*2)
	}
}
