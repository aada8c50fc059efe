package whisperx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"yt2text/internal/services"
	"yt2text/internal/transcript"
)

func collect(t *testing.T, seq func(func(transcript.Segment, error) bool)) ([]transcript.Segment, error) {
	t.Helper()
	var out []transcript.Segment
	for seg, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, seg)
	}
	return out, nil
}

func TestParseSegmentLine(t *testing.T) {
	tests := []struct {
		line string
		want transcript.Segment
		ok   bool
	}{
		{"Transcript: [0.031 --> 2.5]  大家好", transcript.Segment{Text: "大家好", Start: 0.031, End: 2.5}, true},
		{"[00:01.200 --> 00:03.000] hello there", transcript.Segment{Text: "hello there", Start: 1.2, End: 3}, true},
		{"[01:00:00.000 --> 01:00:02.000] late", transcript.Segment{Text: "late", Start: 3600, End: 3602}, true},
		{"[0.0 --> 1.0]   ", transcript.Segment{}, false},
		{"Performing VAD...", transcript.Segment{}, false},
		{"[a --> b] text", transcript.Segment{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseSegmentLine(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseSegmentLine(%q) = %+v, %v; want %+v, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTranscribeStreamsSegments(t *testing.T) {
	svc := NewService(Config{OutputDir: t.TempDir()}, "")
	var gotName string
	var gotArgs []string
	svc.WithStreamRunner(func(_ context.Context, name string, args []string, onLine func(string) bool) error {
		gotName, gotArgs = name, args
		for _, line := range []string{
			"Lightning automatically upgraded your loaded checkpoint",
			"Transcript: [0.000 --> 1.000] a.",
			"Transcript: [3.000 --> 4.000] b.",
		} {
			if !onLine(line) {
				return errStreamStopped
			}
		}
		return nil
	})

	segments, err := collect(t, svc.Transcribe(context.Background(), "/audio/talk.mp3", "zh"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	want := []transcript.Segment{{Text: "a.", Start: 0, End: 1}, {Text: "b.", Start: 3, End: 4}}
	if !slices.Equal(segments, want) {
		t.Fatalf("expected %+v, got %+v", want, segments)
	}
	if gotName != UVXCommand {
		t.Fatalf("expected uvx, got %s", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, fragment := range []string{"whisperx /audio/talk.mp3", "--verbose True", "--language zh", "--vad_method silero", "--device cpu"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("args missing %q: %s", fragment, joined)
		}
	}
}

func TestTranscribeStopsWhenConsumerStops(t *testing.T) {
	svc := NewService(Config{OutputDir: t.TempDir()}, "")
	delivered := 0
	svc.WithStreamRunner(func(_ context.Context, _ string, _ []string, onLine func(string) bool) error {
		for i := 0; i < 5; i++ {
			delivered++
			if !onLine("[0 --> 1] x") {
				return errStreamStopped
			}
		}
		return nil
	})
	for range svc.Transcribe(context.Background(), "a.wav", "en") {
		break
	}
	if delivered != 1 {
		t.Fatalf("runner should stop after the first line, delivered %d", delivered)
	}
}

func TestTranscribeFallsBackToJSON(t *testing.T) {
	dir := t.TempDir()
	payload := `{"segments":[{"text":" first ","start":0,"end":1.5,"words":[{"word":"first","start":0,"end":1}]},{"text":"second","start":2,"end":3}]}`
	if err := os.WriteFile(filepath.Join(dir, "talk.json"), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewService(Config{OutputDir: dir}, "")
	svc.WithStreamRunner(func(context.Context, string, []string, func(string) bool) error { return nil })

	segments, err := collect(t, svc.Transcribe(context.Background(), "/audio/talk.mp3", "en"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 2 || segments[1].Text != "second" || segments[0].End != 1.5 {
		t.Fatalf("unexpected segments %+v", segments)
	}
}

func TestTranscribeProcessFailure(t *testing.T) {
	svc := NewService(Config{OutputDir: t.TempDir()}, "")
	svc.WithStreamRunner(func(_ context.Context, _ string, _ []string, onLine func(string) bool) error {
		onLine("[0 --> 1] partial")
		return errors.New("exit status 1: CUDA out of memory")
	})
	segments, err := collect(t, svc.Transcribe(context.Background(), "a.wav", ""))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("streamed segments should be delivered before the failure, got %d", len(segments))
	}
}

func TestTranscribeRequiresAudioPath(t *testing.T) {
	svc := NewService(Config{}, "")
	if _, err := collect(t, svc.Transcribe(context.Background(), "", "")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildArgsDevicesAndVAD(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_x", Model: "medium"}, "")
	joined := strings.Join(svc.buildArgs("a.wav", "/out", "Chinese"), " ")
	for _, fragment := range []string{"--index-url " + CUDAIndexURL, "--model medium", "--hf_token hf_x", "--device cuda", "--language zh"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("args missing %q: %s", fragment, joined)
		}
	}
	if strings.Contains(joined, "--compute_type") {
		t.Errorf("cuda runs should not force a compute type: %s", joined)
	}
}

func TestExtractAudioUsesRunner(t *testing.T) {
	svc := NewService(Config{}, "/opt/ffmpeg")
	var name string
	var args []string
	svc.WithCommandRunner(func(_ context.Context, n string, a ...string) error {
		name, args = n, a
		return nil
	})
	dest := filepath.Join(t.TempDir(), "work", "a.wav")
	if err := svc.ExtractAudio(context.Background(), "in.mp3", dest); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	if name != "/opt/ffmpeg" || args[len(args)-1] != dest {
		t.Fatalf("unexpected invocation %s %v", name, args)
	}
	if !slices.Contains(args, "16000") {
		t.Fatalf("expected 16 kHz resample, got %v", args)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.json")
	if err := os.WriteFile(path, []byte(`{"segments":[{"text":"a.","start":0,"end":1},{"text":"b.","start":3,"end":4}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	segments, err := collect(t, FileSource{Path: path}.Transcribe(context.Background(), "", ""))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 2 || segments[0].Text != "a." {
		t.Fatalf("unexpected segments %+v", segments)
	}

	if _, err := collect(t, FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Transcribe(context.Background(), "", "")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExecStreamStopsOnOversizedLine(t *testing.T) {
	for _, tool := range []string{"sh", "head", "tr", "sleep"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
	script := `head -c 1200000 /dev/zero | tr '\0' a; echo; exec sleep 30`

	done := make(chan error, 1)
	go func() {
		done <- execStream(context.Background(), "sh", []string{"-c", script}, func(string) bool { return true })
	}()
	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "read output") {
			t.Fatalf("expected read output error, got %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("execStream did not return after an oversized line")
	}
}
