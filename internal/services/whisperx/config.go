package whisperx

// Config holds the WhisperX invocation settings.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote". Pyannote needs HFToken.
	VADMethod string
	HFToken   string
	// OutputDir receives the JSON document WhisperX writes next to its
	// streamed output. Empty uses the audio file's directory.
	OutputDir string
}

const (
	DefaultModel      = "large-v3"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"

	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"

	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"
)

// decodeFlags are passed on every run. Sentence resolution keeps segments
// short enough for the paragraph builder to split on pauses.
var decodeFlags = []string{
	"--batch_size", "4",
	"--output_format", "json",
	"--segment_resolution", "sentence",
	"--chunk_size", "15",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "5",
	"--temperature", "0.0",
	"--verbose", "True",
	"--print_progress", "False",
}

func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel
}

func (c Config) vadMethod() string {
	if c.VADMethod == "" {
		return VADMethodSilero
	}
	return c.VADMethod
}

func (c Config) indexFlags() []string {
	if c.CUDAEnabled {
		return []string{"--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL}
	}
	return []string{"--index-url", PypiIndexURL}
}

func (c Config) deviceFlags() []string {
	if c.CUDAEnabled {
		return []string{"--device", "cuda"}
	}
	return []string{"--device", "cpu", "--compute_type", "int8"}
}
