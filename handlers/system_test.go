package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestHealthReportsCountAndLimits(t *testing.T) {
	env := newTestEnv(t)
	doUpload(t, env, []uploadPart{{"photo.png", "image/png", encodePNG(t, 20, 20)}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Images int    `json:"images"`
		Limits struct {
			MaxFileSize     int64 `json:"max_file_size"`
			MaxBatchCount   int   `json:"max_batch_count"`
			PreviewMaxWidth int   `json:"preview_max_width"`
		} `json:"limits"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing health response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Images != 1 {
		t.Errorf("images = %d, want 1", resp.Images)
	}
	if resp.Limits.MaxBatchCount != 2 || resp.Limits.PreviewMaxWidth != 100 {
		t.Errorf("limits = %+v", resp.Limits)
	}
}

type driftResponse struct {
	CheckedRecords int `json:"checked_records"`
	Missing        []struct {
		ID      string `json:"id"`
		Variant string `json:"variant"`
		Path    string `json:"path"`
	} `json:"missing"`
	Orphans []string `json:"orphans"`
}

func fetchDrift(t *testing.T, env *testEnv) driftResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/system/drift", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("drift status = %d, want 200", rr.Code)
	}
	var resp driftResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing drift response: %v", err)
	}
	return resp
}

func TestDriftReportCleanState(t *testing.T) {
	env := newTestEnv(t)
	doUpload(t, env, []uploadPart{{"photo.png", "image/png", encodePNG(t, 20, 20)}})

	resp := fetchDrift(t, env)
	if resp.CheckedRecords != 1 {
		t.Errorf("checked_records = %d, want 1", resp.CheckedRecords)
	}
	if len(resp.Missing) != 0 || len(resp.Orphans) != 0 {
		t.Errorf("clean state reported drift: %+v", resp)
	}
}

func TestDriftReportDetectsMissingAndOrphans(t *testing.T) {
	env := newTestEnv(t)

	_, up := doUpload(t, env, []uploadPart{{"photo.png", "image/png", encodePNG(t, 20, 20)}})
	id := up.Uploaded[0].ID
	record, _ := env.catalog.Get(id)

	// delete the original out-of-band and drop a stray file in previews
	full, _ := env.store.GetFullPath(record.OriginalPath)
	if err := os.Remove(full); err != nil {
		t.Fatalf("removing original: %v", err)
	}
	stray := filepath.Join(env.storageRoot, "previews", "stray-10.jpg")
	if err := os.WriteFile(stray, []byte("stray"), 0644); err != nil {
		t.Fatalf("writing stray file: %v", err)
	}
	stray2 := filepath.Join(env.storageRoot, "previews", "stray-2.jpg")
	if err := os.WriteFile(stray2, []byte("stray"), 0644); err != nil {
		t.Fatalf("writing stray file: %v", err)
	}

	resp := fetchDrift(t, env)
	if len(resp.Missing) != 1 {
		t.Fatalf("missing = %+v, want one entry", resp.Missing)
	}
	if resp.Missing[0].ID != id || resp.Missing[0].Variant != "original" {
		t.Errorf("missing entry = %+v, want %s/original", resp.Missing[0], id)
	}
	if len(resp.Orphans) != 2 {
		t.Fatalf("orphans = %v, want two entries", resp.Orphans)
	}
	// natural ordering: stray-2 before stray-10
	if resp.Orphans[0] != "stray-2.jpg" || resp.Orphans[1] != "stray-10.jpg" {
		t.Errorf("orphans order = %v, want natural sort", resp.Orphans)
	}
}
