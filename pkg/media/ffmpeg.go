package media

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nbgrade",
		Subsystem: "media",
		Name:      "tool_duration_seconds",
		Help:      "Duration of media tool invocations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})

	toolFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nbgrade",
		Subsystem: "media",
		Name:      "tool_failures_total",
		Help:      "Number of media tool invocations that resulted in an error",
	}, []string{"tool"})
)

// Transcoder describes the media operations needed to prepare a video for
// transcription.
type Transcoder interface {
	ExtractAudio(ctx context.Context, inputPath, outputPath string) error
	Duration(ctx context.Context, inputPath string) (int, error)
}

// Config groups transcoder configuration values.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// FFmpeg implements Transcoder by shelling out to ffmpeg and ffprobe.
type FFmpeg struct {
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewFFmpeg constructs a transcoder backed by the ffmpeg tool suite.
func NewFFmpeg(cfg Config) *FFmpeg {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}

	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &FFmpeg{
		cfg:    cfg,
		tracer: otel.Tracer("github.com/nbgrade/nbgrade-api/pkg/media"),
		logger: logger,
	}
}

// ExtractAudio converts the input video into mono 16kHz 64kbps MP3 audio.
func (f *FFmpeg) ExtractAudio(parent context.Context, inputPath, outputPath string) error {
	ctx, span := f.tracer.Start(parent, "media.extract_audio", trace.WithAttributes(
		attribute.String("media.input", inputPath),
	))
	defer span.End()

	if _, err := f.run(ctx, "ffmpeg", f.cfg.FFmpegPath, extractAudioArgs(inputPath, outputPath)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("extract audio: %w", err)
	}

	return nil
}

// Duration reports the container duration of the input in whole seconds.
// An unparseable probe result is treated as zero, not an error.
func (f *FFmpeg) Duration(parent context.Context, inputPath string) (int, error) {
	ctx, span := f.tracer.Start(parent, "media.duration", trace.WithAttributes(
		attribute.String("media.input", inputPath),
	))
	defer span.End()

	out, err := f.run(ctx, "ffprobe", f.cfg.FFprobePath, durationArgs(inputPath))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("probe duration: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		f.logger.Warn().Str("output", strings.TrimSpace(out)).Msg("unparseable ffprobe duration")
		return 0, nil
	}

	duration := int(math.Round(seconds))
	span.SetAttributes(attribute.Int("media.duration_seconds", duration))
	return duration, nil
}

func (f *FFmpeg) run(ctx context.Context, tool, path string, args []string) (string, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	toolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
	if err != nil {
		toolFailures.WithLabelValues(tool).Inc()
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = err.Error()
		}
		return "", fmt.Errorf("%s: %s", tool, message)
	}

	return out.String(), nil
}

func extractAudioArgs(inputPath, outputPath string) []string {
	return []string{
		"-i", inputPath,
		"-vn",
		"-acodec", "mp3",
		"-ab", "64k",
		"-ar", "16000",
		"-ac", "1",
		"-y", outputPath,
	}
}

func durationArgs(inputPath string) []string {
	return []string{
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		inputPath,
	}
}
