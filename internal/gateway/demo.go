package gateway

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"sync"
)

const (
	DemoProvider   = "demo"
	DemoVideoURL   = "https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4"
	DemoTranscript = "This is a demo transcription. Configure a speech-to-text provider to transcribe your own audio."

	demoSampleRate = 8000
	demoSeconds    = 1
)

var (
	demoAudioOnce sync.Once
	demoAudioURI  string
)

// DemoAudioURL returns a one second silent mono WAV clip as a data URI.
func DemoAudioURL() string {
	demoAudioOnce.Do(func() {
		demoAudioURI = "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(silentWAV(demoSampleRate, demoSeconds))
	})
	return demoAudioURI
}

// silentWAV renders a 16-bit PCM RIFF file of the given length.
func silentWAV(sampleRate, seconds int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	dataSize := sampleRate * seconds * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}
