package videos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Download describes a file fetched by yt-dlp into a local directory.
type Download struct {
	Path            string
	Size            int64
	DurationSeconds int
	Title           string
	Description     string
}

// YTDLPFetcher downloads remote videos using the yt-dlp CLI tool.
type YTDLPFetcher struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewYTDLPFetcher constructs a fetcher that shells out to yt-dlp.
func NewYTDLPFetcher(binary string, timeout time.Duration) *YTDLPFetcher {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &YTDLPFetcher{
		Binary: binary,
		Args: []string{
			"--no-simulate", "--dump-single-json", "--no-warnings", "--no-playlist",
			"-f", "best[ext=mp4]/best",
			"-o", "%(id)s.%(ext)s",
		},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Fetch downloads sourceURL into dir and reports where the file landed.
func (f *YTDLPFetcher) Fetch(ctx context.Context, sourceURL, dir string) (Download, error) {
	if f.Run == nil {
		f.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	args := append([]string{}, f.Args...)
	args = append(args, "-P", dir, sourceURL)

	out, err := f.Run(execCtx, f.Binary, args...)
	if err != nil {
		return Download{}, fmt.Errorf("yt-dlp fetch: %w", err)
	}

	var payload struct {
		Title              string  `json:"title"`
		Description        string  `json:"description"`
		Duration           float64 `json:"duration"`
		RequestedDownloads []struct {
			Filepath string `json:"filepath"`
			Filesize int64  `json:"filesize"`
		} `json:"requested_downloads"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return Download{}, fmt.Errorf("parse yt-dlp response: %w", err)
	}

	if len(payload.RequestedDownloads) == 0 || payload.RequestedDownloads[0].Filepath == "" {
		return Download{}, errors.New("yt-dlp did not report a downloaded file")
	}
	requested := payload.RequestedDownloads[0]

	info, err := os.Stat(requested.Filepath)
	if err != nil {
		return Download{}, fmt.Errorf("stat downloaded file: %w", err)
	}
	size := requested.Filesize
	if size <= 0 {
		size = info.Size()
	}

	return Download{
		Path:            requested.Filepath,
		Size:            size,
		DurationSeconds: int(math.Round(payload.Duration)),
		Title:           strings.TrimSpace(payload.Title),
		Description:     strings.TrimSpace(payload.Description),
	}, nil
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
