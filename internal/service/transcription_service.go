package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nbgrade/nbgrade-api/internal/dto"
	"github.com/nbgrade/nbgrade-api/internal/observability"
	"github.com/nbgrade/nbgrade-api/pkg/ai"
	"github.com/nbgrade/nbgrade-api/pkg/media"
)

var (
	// ErrVideoTooLarge indicates the upload exceeded the configured limit.
	ErrVideoTooLarge = errors.New("video exceeds maximum allowed size")
	// ErrVideoTypeNotAllowed indicates the upload is not a video file.
	ErrVideoTypeNotAllowed = errors.New("file is not a video")
)

// TranscriptionService turns an uploaded video into a transcript plus duration.
type TranscriptionService interface {
	Transcribe(ctx context.Context, file *multipart.FileHeader) (dto.TranscriptionResponse, error)
}

// TranscriptionConfig groups transcription configuration values.
type TranscriptionConfig struct {
	MaxSizeMB int
	Timeout   time.Duration
	CacheTTL  time.Duration
	TempDir   string
}

type transcriptionService struct {
	transcoder  media.Transcoder
	transcriber ai.Transcriber
	cache       *redis.Client
	logger      zerolog.Logger
	tracer      trace.Tracer
	maxSize     int64
	timeout     time.Duration
	cacheTTL    time.Duration
	tempDir     string
}

// cachedTranscript is the cache entry keyed by the upload's checksum.
type cachedTranscript struct {
	Transcript       string `json:"transcript"`
	Duration         int    `json:"duration"`
	AudioSize        int64  `json:"audio_size"`
	CompressionRatio int    `json:"compression_ratio"`
}

// NewTranscriptionService constructs the transcription service. The cache
// client may be nil, in which case every upload is transcribed from scratch.
func NewTranscriptionService(transcoder media.Transcoder, transcriber ai.Transcriber, cache *redis.Client, logger zerolog.Logger, cfg TranscriptionConfig) TranscriptionService {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 100
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}

	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	return &transcriptionService{
		transcoder:  transcoder,
		transcriber: transcriber,
		cache:       cache,
		logger:      logger.With().Str("component", "transcription_service").Logger(),
		tracer:      otel.Tracer("github.com/nbgrade/nbgrade-api/internal/service/transcription"),
		maxSize:     int64(cfg.MaxSizeMB) * 1024 * 1024,
		timeout:     cfg.Timeout,
		cacheTTL:    cfg.CacheTTL,
		tempDir:     cfg.TempDir,
	}
}

// Transcribe extracts compressed mono audio from the upload, probes its
// duration, and sends the audio for speech-to-text. Both temporary files are
// removed on every exit path.
func (s *transcriptionService) Transcribe(ctx context.Context, file *multipart.FileHeader) (dto.TranscriptionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "transcription.run")
	defer span.End()

	if file == nil {
		err := errors.New("video file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.TranscriptionResponse{}, err
	}

	span.SetAttributes(
		attribute.String("transcription.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("transcription.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		observability.TranscriptionRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrVideoTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.TranscriptionResponse{}, ErrVideoTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.TranscriptionResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.TranscriptionResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.TranscriptionRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrVideoTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.TranscriptionResponse{}, ErrVideoTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("transcription.detected_mime", detected.String()))
	if !strings.HasPrefix(detected.String(), "video/") {
		observability.TranscriptionRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrVideoTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return dto.TranscriptionResponse{}, ErrVideoTypeNotAllowed
	}

	checksum := sha256.Sum256(buf.Bytes())
	cacheKey := "transcript:" + hex.EncodeToString(checksum[:])

	if cached, ok := s.lookupCache(ctx, cacheKey); ok {
		observability.TranscriptCacheHits().Inc()
		span.SetAttributes(attribute.Bool("transcription.cache_hit", true))
		return dto.TranscriptionResponse{
			Transcript:       cached.Transcript,
			Duration:         cached.Duration,
			OriginalSize:     int64(buf.Len()),
			AudioSize:        cached.AudioSize,
			CompressionRatio: cached.CompressionRatio,
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = ".mp4"
	}

	stamp := time.Now().UnixNano()
	token := uuid.NewString()
	inputPath := filepath.Join(s.tempDir, fmt.Sprintf("input_%d_%s%s", stamp, token, ext))
	audioPath := filepath.Join(s.tempDir, fmt.Sprintf("audio_%d_%s.mp3", stamp, token))

	defer func() {
		if err := os.Remove(inputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", inputPath).Msg("failed to remove temp video")
		}
		if err := os.Remove(audioPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", audioPath).Msg("failed to remove temp audio")
		}
	}()

	if err := os.WriteFile(inputPath, buf.Bytes(), 0600); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "temp write failed")
		return dto.TranscriptionResponse{}, fmt.Errorf("write temp video: %w", err)
	}

	if err := s.transcoder.ExtractAudio(ctx, inputPath, audioPath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcode failed")
		return dto.TranscriptionResponse{}, err
	}

	duration, err := s.transcoder.Duration(ctx, inputPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")
		return dto.TranscriptionResponse{}, err
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audio read failed")
		return dto.TranscriptionResponse{}, fmt.Errorf("read extracted audio: %w", err)
	}

	transcript, err := s.transcriber.Transcribe(ctx, bytes.NewReader(audio), filepath.Base(audioPath))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription failed")
		return dto.TranscriptionResponse{}, err
	}

	ratio := 0
	if buf.Len() > 0 {
		ratio = int(math.Round((1 - float64(len(audio))/float64(buf.Len())) * 100))
	}

	response := dto.TranscriptionResponse{
		Transcript:       transcript,
		Duration:         duration,
		OriginalSize:     int64(buf.Len()),
		AudioSize:        int64(len(audio)),
		CompressionRatio: ratio,
	}

	s.storeCache(ctx, cacheKey, cachedTranscript{
		Transcript:       transcript,
		Duration:         duration,
		AudioSize:        response.AudioSize,
		CompressionRatio: ratio,
	})

	span.SetAttributes(
		attribute.Int("transcription.duration_seconds", duration),
		attribute.Int64("transcription.audio_size", response.AudioSize),
	)

	return response, nil
}

func (s *transcriptionService) lookupCache(ctx context.Context, key string) (cachedTranscript, bool) {
	if s.cache == nil {
		return cachedTranscript{}, false
	}

	value, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read transcript cache")
		}
		return cachedTranscript{}, false
	}

	var cached cachedTranscript
	if err := json.Unmarshal([]byte(value), &cached); err != nil {
		s.logger.Warn().Err(err).Msg("transcript cache entry is unreadable")
		return cachedTranscript{}, false
	}

	return cached, true
}

func (s *transcriptionService) storeCache(ctx context.Context, key string, entry cachedTranscript) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store transcript cache")
	}
}
