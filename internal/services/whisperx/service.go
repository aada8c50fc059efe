package whisperx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	langpkg "yt2text/internal/language"
	"yt2text/internal/services"
	"yt2text/internal/transcript"
)

// CommandRunner runs a command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// StreamRunner runs a command and hands every stdout line to onLine. When
// onLine returns false the command is stopped and errStreamStopped returned.
type StreamRunner func(ctx context.Context, name string, args []string, onLine func(string) bool) error

var errStreamStopped = errors.New("stream stopped by consumer")

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	commandRunner CommandRunner
	streamRunner  StreamRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
		streamRunner: execStream,
	}
}

// WithCommandRunner sets a custom command runner for ffmpeg (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// WithStreamRunner sets a custom runner for the WhisperX process (for testing).
func (s *Service) WithStreamRunner(runner StreamRunner) {
	if runner != nil {
		s.streamRunner = runner
	}
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.model()
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// Transcribe runs WhisperX over audioPath and yields segments as the engine
// prints them. When the process prints nothing usable, the JSON document it
// wrote is read instead. A failed run yields a single error and stops.
func (s *Service) Transcribe(ctx context.Context, audioPath, language string) iter.Seq2[transcript.Segment, error] {
	return func(yield func(transcript.Segment, error) bool) {
		if audioPath == "" {
			yield(transcript.Segment{}, services.Wrap(services.ErrValidation, "transcription", "whisperx", "audio path required", nil))
			return
		}
		outputDir := s.cfg.OutputDir
		if outputDir == "" {
			outputDir = filepath.Dir(audioPath)
		}
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			yield(transcript.Segment{}, fmt.Errorf("transcribe: ensure output dir: %w", err))
			return
		}

		streamed := 0
		stopped := false
		err := s.streamRunner(ctx, UVXCommand, s.buildArgs(audioPath, outputDir, language), func(line string) bool {
			seg, ok := ParseSegmentLine(line)
			if !ok {
				return true
			}
			streamed++
			if !yield(seg, nil) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				yield(transcript.Segment{}, ctx.Err())
				return
			}
			yield(transcript.Segment{}, services.Wrap(services.ErrExternalTool, "transcription", "whisperx", "", err))
			return
		}
		if streamed > 0 {
			return
		}

		segments, err := LoadSegments(JSONPath(outputDir, audioPath))
		if err != nil {
			yield(transcript.Segment{}, services.Wrap(services.ErrExternalTool, "transcription", "load whisperx json", "", err))
			return
		}
		for _, seg := range segments {
			if !yield(seg.Transcript(), nil) {
				return
			}
		}
	}
}

// JSONPath is where WhisperX writes the JSON document for audioPath.
func JSONPath(outputDir, audioPath string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(outputDir, base+".json")
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

const stderrTailBytes = 4096

// streamWaitDelay bounds how long Wait blocks on output pipes still held by
// grandchildren after the process was killed.
const streamWaitDelay = 2 * time.Second

// execStream starts the command and scans stdout line by line. Stderr is kept
// for the error message only.
func execStream(ctx context.Context, name string, args []string, onLine func(string) bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.WaitDelay = streamWaitDelay
	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s: stdout pipe: %w", name, err)
	}
	stderr := &tailBuffer{limit: stderrTailBytes}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: start: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if !onLine(scanner.Text()) {
			cancel()
			_ = cmd.Wait()
			return errStreamStopped
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		// Stdout is no longer read, so the child must not keep writing to it.
		cancel()
		_ = cmd.Wait()
		return fmt.Errorf("%s: read output: %w", name, scanErr)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := append([]string{}, s.cfg.indexFlags()...)
	args = append(args, "whisperx", source, "--model", s.Model(), "--output_dir", outputDir)
	args = append(args, decodeFlags...)

	vad := s.cfg.vadMethod()
	args = append(args, "--vad_method", vad)
	if vad == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}
	return append(args, s.cfg.deviceFlags()...)
}
