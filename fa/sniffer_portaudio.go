package fa

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Sound-card-backed sniffer for development without real BPM
 *		hardware: a 2-channel (stereo) input stream stands in for
 *		device 0's (x, y) pair, and every other device's entry is
 *		replicated from the previous frame so downstream decimation
 *		and indexing see plausible N-wide rows. See spec.md section
 *		6's driver contract and SPEC_FULL.md's sniffer-adapter
 *		expansion.
 *
 *------------------------------------------------------------------*/

// PortAudioSniffer reads frames from the default input device and
// repacks interleaved float32 stereo samples into FA samples.
type PortAudioSniffer struct {
	stream       *portaudio.Stream
	faEntryCount int
	floatBuf     []float32 // interleaved L/R, len = inputFrameCount*2
	lastFrame    []Sample  // previous frame, replicated into ids 1..N-1
}

// NewPortAudioSniffer initializes PortAudio and opens a blocking stereo
// input stream sized to read one minor block (inputFrameCount frames) at
// a time.
func NewPortAudioSniffer(faEntryCount, inputFrameCount int, sampleRate float64) (*PortAudioSniffer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	floatBuf := make([]float32, inputFrameCount*2)
	stream, err := portaudio.OpenDefaultStream(2, 0, sampleRate, inputFrameCount, floatBuf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("starting input stream: %w", err)
	}
	lastFrame := make([]Sample, faEntryCount)
	return &PortAudioSniffer{
		stream:       stream,
		faEntryCount: faEntryCount,
		floatBuf:     floatBuf,
		lastFrame:    lastFrame,
	}, nil
}

func (p *PortAudioSniffer) Close() error {
	err1 := p.stream.Stop()
	err2 := p.stream.Close()
	portaudio.Terminate()
	if err1 != nil {
		return err1
	}
	return err2
}

// Read fills buf with one minor block: faEntryCount samples per frame,
// device 0 taken from the live audio stream, every other device
// replicated from the previous frame.
func (p *PortAudioSniffer) Read(buf []byte) (uint64, error) {
	if err := p.stream.Read(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSnifferRead, err)
	}
	frameCount := len(p.floatBuf) / 2
	for i := 0; i < frameCount; i++ {
		rowBase := int64(i*p.faEntryCount) * SampleSize
		s0 := Sample{
			X: int32(p.floatBuf[2*i] * (1 << 30)),
			Y: int32(p.floatBuf[2*i+1] * (1 << 30)),
		}
		putSample(buf, rowBase, s0)
		p.lastFrame[0] = s0
		for id := 1; id < p.faEntryCount; id++ {
			putSample(buf, rowBase+int64(id)*SampleSize, p.lastFrame[id])
		}
	}
	return uint64(time.Now().UnixMicro()), nil
}

func (p *PortAudioSniffer) Status() SnifferStatus {
	return SnifferStatus{Running: true}
}

func (p *PortAudioSniffer) Reset() error                { return nil }
func (p *PortAudioSniffer) Interrupt() error            { return nil }
func (p *PortAudioSniffer) GetEntryCount() (int, error) { return p.faEntryCount, nil }
func (p *PortAudioSniffer) SetEntryCount(n int) error {
	p.faEntryCount = n
	p.lastFrame = make([]Sample, n)
	return nil
}
