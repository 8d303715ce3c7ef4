package videos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestYTDLPFetcherFetch(t *testing.T) {
	fetcher := NewYTDLPFetcher("yt-dlp", time.Second)

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "abc.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("content"), 0o600))

	var gotBinary string
	var gotArgs []string
	fetcher.Run = func(_ context.Context, binary string, args ...string) ([]byte, error) {
		gotBinary, gotArgs = binary, args
		payload := fmt.Sprintf(`{"title":"Example","description":"Desc","duration":61.6,"requested_downloads":[{"filepath":%q,"filesize":0}]}`, videoPath)
		return []byte(payload), nil
	}

	dl, err := fetcher.Fetch(context.Background(), "https://example.com/watch", dir)
	require.NoError(t, err)

	require.Equal(t, "yt-dlp", gotBinary)
	require.NotEmpty(t, gotArgs)
	require.Equal(t, "--no-simulate", gotArgs[0], "download must be enabled")
	require.GreaterOrEqual(t, len(gotArgs), 3)
	require.Equal(t, []string{"-P", dir, "https://example.com/watch"}, gotArgs[len(gotArgs)-3:])

	require.Equal(t, videoPath, dl.Path)
	require.Equal(t, "Example", dl.Title)
	require.Equal(t, "Desc", dl.Description)
	require.Equal(t, int64(len("content")), dl.Size, "size comes from the file on disk")
	require.Equal(t, 62, dl.DurationSeconds)
}

func TestYTDLPFetcherFetchFailures(t *testing.T) {
	cases := map[string]CommandRunner{
		"command": func(context.Context, string, ...string) ([]byte, error) {
			return nil, errors.New("exit status 1")
		},
		"json": func(context.Context, string, ...string) ([]byte, error) {
			return []byte("not json"), nil
		},
		"noDownloads": func(context.Context, string, ...string) ([]byte, error) {
			return []byte(`{"title":"x","requested_downloads":[]}`), nil
		},
		"missingFile": func(context.Context, string, ...string) ([]byte, error) {
			return []byte(`{"title":"x","requested_downloads":[{"filepath":"/nonexistent/file.mp4"}]}`), nil
		},
	}
	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			fetcher := NewYTDLPFetcher("", 0)
			fetcher.Run = run
			_, err := fetcher.Fetch(context.Background(), "https://example.com", t.TempDir())
			require.Error(t, err)
		})
	}
}
