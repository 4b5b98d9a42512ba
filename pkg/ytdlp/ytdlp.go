// Package ytdlp wraps the yt-dlp downloader.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/yar-app/yar-api/pkg/ytdlp")

// Error reports a failed invocation together with its stderr output.
type Error struct {
	Output string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("yt-dlp: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Format is one downloadable rendition.
type Format struct {
	Ext         string   `json:"ext"`
	Width       *int     `json:"width,omitempty"`
	Height      *int     `json:"height,omitempty"`
	FormatID    string   `json:"format_id"`
	Format      string   `json:"format"`
	URL         string   `json:"url"`
	AspectRatio *float64 `json:"aspect_ratio,omitempty"`
	VideoExt    string   `json:"video_ext"`
	AudioExt    string   `json:"audio_ext"`
	Filesize    *int64   `json:"filesize,omitempty"`
}

// Thumbnail is one candidate preview image.
type Thumbnail struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// VideoInfo is the subset of the yt-dlp JSON document exposed to clients.
type VideoInfo struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Thumbnail      string      `json:"thumbnail"`
	WebpageURL     string      `json:"webpage_url"`
	OriginalURL    string      `json:"original_url"`
	URL            string      `json:"url,omitempty"`
	DisplayID      string      `json:"display_id"`
	FullTitle      string      `json:"fulltitle"`
	Epoch          int64       `json:"epoch"`
	Ext            string      `json:"ext"`
	Width          *int        `json:"width,omitempty"`
	Height         *int        `json:"height,omitempty"`
	Filename       string      `json:"filename"`
	FilesizeApprox *int64      `json:"filesize_approx,omitempty"`
	Duration       *float64    `json:"duration,omitempty"`
	Formats        []Format    `json:"formats"`
	Thumbnails     []Thumbnail `json:"thumbnails"`
}

// Progress is one parsed download progress line.
type Progress struct {
	Percent      float64 `json:"percent"`
	TotalSize    string  `json:"totalSize"`
	CurrentSpeed string  `json:"currentSpeed"`
	ETA          string  `json:"eta"`
}

var progressPattern = regexp.MustCompile(`\[download\]\s+([\d.]+)% of\s+~?\s*(\S+)(?:\s+at\s+(\S+))?(?:\s+ETA\s+(\S+))?`)

// ParseProgress extracts progress from a single stderr line.
func ParseProgress(line string) (Progress, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Progress{}, false
	}
	return Progress{Percent: percent, TotalSize: m[2], CurrentSpeed: m[3], ETA: m[4]}, true
}

// Client runs yt-dlp.
type Client struct {
	path string
}

// New returns a client for the binary at path. An empty path resolves from PATH.
func New(path string) *Client {
	if path == "" {
		path = "yt-dlp"
	}
	return &Client{path: path}
}

// Info fetches metadata for url without downloading it.
func (c *Client) Info(ctx context.Context, url string) (*VideoInfo, error) {
	ctx, span := tracer.Start(ctx, "ytdlp.info")
	defer span.End()
	span.SetAttributes(attribute.String("source.url", url))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, "--dump-single-json", "--no-warnings", "--no-playlist", url)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &Error{Output: stderr.String(), Err: err}
	}

	var info VideoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("decode yt-dlp output: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("yt-dlp returned no video for %s", url)
	}
	return &info, nil
}

// Download streams the best single-file rendition of url into w, reporting
// progress lines to onProgress as they arrive.
func (c *Client) Download(ctx context.Context, url string, w io.Writer, onProgress func(Progress)) error {
	ctx, span := tracer.Start(ctx, "ytdlp.download")
	defer span.End()
	span.SetAttributes(attribute.String("source.url", url))

	cmd := exec.CommandContext(ctx, c.path, "-f", "best", "--newline", "--no-part", "-o", "-", url)
	cmd.Stdout = w
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("yt-dlp stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return &Error{Err: err}
	}

	var tail []string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if p, ok := ParseProgress(line); ok {
			if onProgress != nil {
				onProgress(p)
			}
			continue
		}
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
	}

	if err := cmd.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return &Error{Output: strings.Join(tail, "\n"), Err: err}
	}
	return nil
}
