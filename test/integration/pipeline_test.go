// Package integration provides end-to-end tests (requires real storage).
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/hyperjump/bunrui/internal/analysis"
	"github.com/hyperjump/bunrui/internal/cli"
	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/kmeans"
	"github.com/hyperjump/bunrui/internal/server"
	"github.com/hyperjump/bunrui/internal/storage"
	"github.com/hyperjump/bunrui/internal/watcher"
)

const pointsCSV = `name,x,y
a,1.0,1.0
b,1.5,2.0
c,,3.0
d,8.0,8.0
e,9.0,11.0
f,8.5,9.0
g,oops,1.0
`

func writeCompressed(t *testing.T, path string, data []byte) {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestIntegration_ClusterStoreAndServe(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "db", "runs.db")
	cfg.Input.Columns = []int{1, 2}
	cfg.Cluster.K = 2
	cfg.Cluster.Workers = 2

	input := filepath.Join(dir, "points.csv.zst")
	writeCompressed(t, input, []byte(pointsCSV))

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	srcOpts, err := cfg.Input.SourceOptions()
	if err != nil {
		t.Fatal(err)
	}
	kcfg, err := cfg.Cluster.KMeans()
	if err != nil {
		t.Fatal(err)
	}
	a := analysis.NewAnalyzer(analysis.WithStorage(store))
	ctx := context.Background()
	out, err := a.Run(ctx, analysis.Request{
		Path:      input,
		Source:    srcOpts,
		Columns:   cfg.Input.Columns,
		HasHeader: cfg.Input.HasHeaderOrDefault(),
		Cluster:   kcfg,
		Save:      true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Skipped) != 2 || out.Run.Rows != 5 {
		t.Fatalf("skipped %v, rows %d", out.Skipped, out.Run.Rows)
	}
	if !out.Run.Converged() {
		t.Errorf("run should converge, state %s", out.Run.State)
	}
	centroids := append([][]float64(nil), out.Run.Centroids...)
	sort.Slice(centroids, func(i, j int) bool { return centroids[i][0] < centroids[j][0] })
	if centroids[0][0] != 1.25 || centroids[0][1] != 1.5 {
		t.Errorf("low centroid = %v", centroids[0])
	}

	var compact bytes.Buffer
	if err := cli.WriteRun(&compact, out.Run, cli.OutputCompact); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(compact.String()), "\n"); len(lines) != 2 {
		t.Errorf("compact output = %q", compact.String())
	}

	srv := httptest.NewServer(server.NewServer(a, store, cfg, nil).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/runs/" + out.Run.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get run status = %d", resp.StatusCode)
	}
	var got struct {
		ID        string      `json:"id"`
		Centroids [][]float64 `json:"centroids"`
		Sizes     []int       `json:"sizes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != out.Run.ID || len(got.Centroids) != 2 || got.Sizes[0]+got.Sizes[1] != 5 {
		t.Errorf("served run = %+v", got)
	}
}

func TestIntegration_WatchReclusters(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "points.csv")
	if err := os.WriteFile(input, []byte("1,1\n9,9\n"), 0600); err != nil {
		t.Fatal(err)
	}
	a := analysis.NewAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var rows []int
	onChange := func(path string) {
		out, err := a.Run(ctx, analysis.Request{Path: path, Columns: []int{0, 1}, Cluster: kmeans.Config{K: 2}})
		if err != nil {
			t.Errorf("re-run failed: %v", err)
			return
		}
		mu.Lock()
		rows = append(rows, out.Run.Rows)
		mu.Unlock()
	}
	w, err := watcher.NewWatcher([]string{input}, onChange, watcher.WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(input, []byte("1,1\n1,2\n9,9\n9,8\n"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(rows) != 1 || rows[0] != 4 {
		t.Errorf("expected one re-run over 4 rows, got %v", rows)
	}
}
