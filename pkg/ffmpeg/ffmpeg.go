// Package ffmpeg wraps the ffmpeg and ffprobe binaries.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/yar-app/yar-api/pkg/ffmpeg")

// ToolError reports a failed invocation together with its stderr output.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ProbeResult holds the fields read from ffprobe.
type ProbeResult struct {
	Duration *float64
	Width    *int
	Height   *int
}

// Client runs ffmpeg commands.
type Client struct {
	ffmpegPath  string
	ffprobePath string
}

// New returns a client for the given binaries. Empty paths resolve from PATH.
func New(ffmpegPath, ffprobePath string) *Client {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Client{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads duration and dimensions of a media file.
func (c *Client) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, span := tracer.Start(ctx, "ffprobe")
	defer span.End()
	span.SetAttributes(attribute.String("media.path", path))

	stdout, err := c.run(ctx, c.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var out probeOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	for _, s := range out.Streams {
		if result.Duration == nil {
			result.Duration = parseSeconds(s.Duration)
		}
		if s.CodecType == "video" && result.Width == nil && s.Width > 0 {
			w, h := s.Width, s.Height
			result.Width, result.Height = &w, &h
		}
	}
	if result.Duration == nil {
		result.Duration = parseSeconds(out.Format.Duration)
	}
	return result, nil
}

// Thumbnail extracts the frame at one second into output as a 720px wide image.
func (c *Client) Thumbnail(ctx context.Context, input, output string) (os.FileInfo, error) {
	ctx, span := tracer.Start(ctx, "ffmpeg.thumbnail")
	defer span.End()
	span.SetAttributes(attribute.String("media.input", input), attribute.String("media.output", output))

	if _, err := c.run(ctx, c.ffmpegPath,
		"-y",
		"-v", "error",
		"-i", input,
		"-ss", "00:00:01.000",
		"-vf", "scale=720:-1",
		"-frames:v", "1",
		output,
	); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	info, err := os.Stat(output)
	if err != nil {
		return nil, fmt.Errorf("stat thumbnail: %w", err)
	}
	return info, nil
}

func (c *Client) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &ToolError{Tool: name, Output: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

func parseSeconds(raw string) *float64 {
	if raw == "" || raw == "N/A" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
