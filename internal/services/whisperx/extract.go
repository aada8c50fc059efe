package whisperx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ExtractAudio converts src to a mono 16 kHz WAV file at dest, the input
// format WhisperX handles best.
func (s *Service) ExtractAudio(ctx context.Context, src, dest string) error {
	if src == "" || dest == "" {
		return fmt.Errorf("extract audio: source and destination required")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("extract audio: ensure dir: %w", err)
	}
	if err := s.run(ctx, s.ffmpegBinary, buildFFmpegExtractArgs(src, dest)...); err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	return nil
}

func buildFFmpegExtractArgs(src, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}
