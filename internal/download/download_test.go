package download

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/3leaps/jbi/internal/model"
)

type recordingReporter struct {
	events   []string
	progress []int64
}

func (r *recordingReporter) Skipped(string, int64)             { r.events = append(r.events, "skipped") }
func (r *recordingReporter) SizeMismatch(string, int64, int64) { r.events = append(r.events, "mismatch") }
func (r *recordingReporter) Started(string, string)            { r.events = append(r.events, "started") }
func (r *recordingReporter) Progress(done, _ int64)            { r.progress = append(r.progress, done) }
func (r *recordingReporter) Finished(string, int64)            { r.events = append(r.events, "finished") }

func archiveServer(t *testing.T, payload []byte) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/cpp/clion-2024.1.tar.gz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func newDownloader(t *testing.T, rep Reporter) *Downloader {
	return &Downloader{HTTP: http.DefaultClient, UserAgent: "jbi/test", Log: zaptest.NewLogger(t), Reporter: rep}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://download.example.test/cpp/CLion-2024.1.tar.gz", "CLion-2024.1.tar.gz", false},
		{"https://download.example.test/cpp/CLion-2024.1.dmg?mirror=eu", "CLion-2024.1.dmg", false},
		{"https://download.example.test/", "", true},
		{"https://download.example.test", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := FileName(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("FileName: %v", err)
			}
			if got != tt.want {
				t.Fatalf("FileName: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestDownloadSkipsWhenSizeMatches(t *testing.T) {
	payload := []byte("archive-bytes")
	ts, hits := archiveServer(t, payload)
	dir := t.TempDir()
	existing := filepath.Join(dir, "clion-2024.1.tar.gz")
	if err := os.WriteFile(existing, []byte("other-content"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rep := &recordingReporter{}
	desc := model.DownloadDescriptor{URL: ts.URL + "/cpp/clion-2024.1.tar.gz", Size: int64(len(payload))}
	got, err := newDownloader(t, rep).Download(context.Background(), desc, dir, false)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != existing {
		t.Fatalf("path: got %q want %q", got, existing)
	}
	if n := atomic.LoadInt32(hits); n != 0 {
		t.Fatalf("expected no transfer, got %d requests", n)
	}
	if strings.Join(rep.events, ",") != "skipped" {
		t.Fatalf("events: got %v", rep.events)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "other-content" {
		t.Fatalf("existing file modified: %q", data)
	}
}

func TestDownloadReplacesSizeMismatch(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 4096)
	ts, hits := archiveServer(t, payload)
	dir := t.TempDir()
	existing := filepath.Join(dir, "clion-2024.1.tar.gz")
	if err := os.WriteFile(existing, []byte("truncated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rep := &recordingReporter{}
	desc := model.DownloadDescriptor{URL: ts.URL + "/cpp/clion-2024.1.tar.gz", Size: int64(len(payload))}
	if _, err := newDownloader(t, rep).Download(context.Background(), desc, dir, false); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Fatalf("expected one transfer, got %d", n)
	}
	fi, err := os.Stat(existing)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Size() != desc.Size {
		t.Fatalf("size after download: got %d want %d", fi.Size(), desc.Size)
	}
	if strings.Join(rep.events, ",") != "mismatch,started,finished" {
		t.Fatalf("events: got %v", rep.events)
	}
	if len(rep.progress) == 0 || rep.progress[len(rep.progress)-1] != desc.Size {
		t.Fatalf("progress did not reach total: %v", rep.progress)
	}
}

func TestDownloadWarnsOnShortTransferAndKeepsFile(t *testing.T) {
	payload := []byte("short")
	ts, _ := archiveServer(t, payload)
	dir := t.TempDir()
	core, logs := observer.New(zapcore.WarnLevel)
	rep := &recordingReporter{}
	d := &Downloader{HTTP: http.DefaultClient, UserAgent: "jbi/test", Log: zap.New(core), Reporter: rep}

	desc := model.DownloadDescriptor{URL: ts.URL + "/cpp/clion-2024.1.tar.gz", Size: 1024}
	got, err := d.Download(context.Background(), desc, dir, false)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	warnings := logs.FilterMessage("downloaded size differs from advertised size").All()
	if len(warnings) != 1 {
		t.Fatalf("expected one size warning, got %d", len(warnings))
	}
	fields := warnings[0].ContextMap()
	if fields["written"] != int64(len(payload)) || fields["expected"] != int64(1024) {
		t.Fatalf("warning fields: %v", fields)
	}

	fi, err := os.Stat(got)
	if err != nil {
		t.Fatalf("short file not kept: %v", err)
	}
	if fi.Size() != int64(len(payload)) {
		t.Fatalf("kept file size: got %d want %d", fi.Size(), len(payload))
	}
	if strings.Join(rep.events, ",") != "started,finished" {
		t.Fatalf("events: got %v", rep.events)
	}
}

func TestDownloadForceRefetchesMatchingFile(t *testing.T) {
	payload := []byte("fresh-bytes!!")
	ts, hits := archiveServer(t, payload)
	dir := t.TempDir()
	existing := filepath.Join(dir, "clion-2024.1.tar.gz")
	if err := os.WriteFile(existing, []byte("stale-bytes!!"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	desc := model.DownloadDescriptor{URL: ts.URL + "/cpp/clion-2024.1.tar.gz", Size: int64(len(payload))}
	if _, err := newDownloader(t, nil).Download(context.Background(), desc, dir, true); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Fatalf("expected one transfer, got %d", n)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "fresh-bytes!!" {
		t.Fatalf("content: got %q", data)
	}
}

func TestDownloadCreatesTempDir(t *testing.T) {
	payload := []byte("abc")
	ts, _ := archiveServer(t, payload)
	dir := filepath.Join(t.TempDir(), "nested", "tmp")

	desc := model.DownloadDescriptor{URL: ts.URL + "/cpp/clion-2024.1.tar.gz", Size: 3}
	got, err := newDownloader(t, nil).Download(context.Background(), desc, dir, false)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Dir(got) != dir {
		t.Fatalf("path: got %q", got)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	ts, _ := archiveServer(t, nil)
	desc := model.DownloadDescriptor{URL: ts.URL + "/cpp/missing.tar.gz", Size: 3}
	_, err := newDownloader(t, nil).Download(context.Background(), desc, t.TempDir(), false)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLineProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false)
	p.Update(50, 200)
	p.Update(51, 200) // same whole percent, suppressed
	p.Update(200, 200)
	p.Finish()

	out := buf.String()
	if strings.Count(out, "\r") != 2 {
		t.Fatalf("expected two progress lines, got %q", out)
	}
	if !strings.Contains(out, "50 / 200 bytes loaded (25.00%)") {
		t.Fatalf("missing first line: %q", out)
	}
	if !strings.HasSuffix(out, "200 / 200 bytes loaded (100.00%)\n") {
		t.Fatalf("missing final line: %q", out)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{1536 * 1024 * 1024, "1.5 GiB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Fatalf("FormatSize(%d): got %q want %q", tt.in, got, tt.want)
		}
	}
}
