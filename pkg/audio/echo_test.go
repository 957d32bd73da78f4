package audio

import "testing"

func tone(n int, amp int16) []byte {
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := amp
		if i%2 == 1 {
			v = -amp
		}
		pcm[2*i] = byte(v)
		pcm[2*i+1] = byte(v >> 8)
	}
	return pcm
}

func TestEchoSuppressorDetectsRecentPlayback(t *testing.T) {
	es := NewEchoSuppressor()
	played := tone(4000, 12000)
	es.RecordPlayedAudio(played)

	if !es.IsEcho(played) {
		t.Fatal("expected identical played-back audio to be classified as echo")
	}
}

func TestEchoSuppressorIgnoresStalePlayback(t *testing.T) {
	es := NewEchoSuppressor()
	es.silenceAfter = 0
	es.RecordPlayedAudio(tone(4000, 12000))

	if es.IsEcho(tone(4000, 12000)) {
		t.Fatal("expected stale playback to not be classified as echo")
	}
}

func TestEchoSuppressorDisabledNeverFlags(t *testing.T) {
	es := NewEchoSuppressor()
	es.RecordPlayedAudio(tone(4000, 12000))
	es.SetEnabled(false)

	if es.IsEcho(tone(4000, 12000)) {
		t.Fatal("expected a disabled suppressor to never flag echo")
	}
}

func TestClearEchoBufferRemovesHistory(t *testing.T) {
	es := NewEchoSuppressor()
	es.RecordPlayedAudio(tone(4000, 12000))
	es.ClearEchoBuffer()

	if es.IsEcho(tone(4000, 12000)) {
		t.Fatal("expected IsEcho to return false after clearing the buffer")
	}
}
