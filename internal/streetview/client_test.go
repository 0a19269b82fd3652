package streetview_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/playperu/streetguess/internal/geoguess"
	"github.com/playperu/streetguess/internal/streetview"
)

func TestFindNear(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    geoguess.Panorama
		wantErr error
		anyErr  bool
	}{
		{
			name:   "ok",
			status: http.StatusOK,
			body:   `{"status":"OK","pano_id":"abc123","location":{"lat":35.68,"lng":139.76}}`,
			want:   geoguess.Panorama{ID: "abc123", Location: geoguess.Point{Lat: 35.68, Lng: 139.76}},
		},
		{
			name:    "zero results",
			status:  http.StatusOK,
			body:    `{"status":"ZERO_RESULTS"}`,
			wantErr: geoguess.ErrNoPanorama,
		},
		{
			name:    "ok without pano id",
			status:  http.StatusOK,
			body:    `{"status":"OK"}`,
			wantErr: geoguess.ErrNoPanorama,
		},
		{
			name:   "request denied",
			status: http.StatusOK,
			body:   `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`,
			anyErr: true,
		},
		{
			name:   "over query limit",
			status: http.StatusOK,
			body:   `{"status":"OVER_QUERY_LIMIT"}`,
			anyErr: true,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
			anyErr: true,
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `{"status":`,
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery url.Values
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/metadata" {
					t.Errorf("path = %q, want /metadata", r.URL.Path)
				}
				gotQuery = r.URL.Query()
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := streetview.NewClient(srv.URL, "secret", time.Second, slog.Default())
			got, err := c.FindNear(context.Background(), geoguess.Point{Lat: 35.6, Lng: 139.7}, 1000, true)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Fatal("expected error")
				}
				if errors.Is(err, geoguess.ErrNoPanorama) {
					t.Fatalf("upstream failure reported as no panorama: %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %+v, want %+v", got, tt.want)
				}
			}

			if gotQuery.Get("location") != "35.6,139.7" {
				t.Errorf("location = %q", gotQuery.Get("location"))
			}
			if gotQuery.Get("radius") != "1000" {
				t.Errorf("radius = %q", gotQuery.Get("radius"))
			}
			if gotQuery.Get("source") != "outdoor" {
				t.Errorf("source = %q", gotQuery.Get("source"))
			}
			if gotQuery.Get("key") != "secret" {
				t.Errorf("key = %q", gotQuery.Get("key"))
			}
		})
	}
}

func TestFindNearTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := streetview.NewClient(srv.URL, "k", 50*time.Millisecond, slog.Default())
	if _, err := c.FindNear(context.Background(), geoguess.Point{}, 10, true); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestViews(t *testing.T) {
	c := streetview.NewClient("https://img.example", "k", time.Second, slog.Default())
	views := c.Views("pano1")

	wantNames := []string{"North", "East", "South", "West"}
	wantHeadings := []int{0, 90, 180, 270}
	if len(views) != 4 {
		t.Fatalf("got %d views", len(views))
	}
	for i, v := range views {
		if v.Name != wantNames[i] || v.Heading != wantHeadings[i] {
			t.Errorf("view %d = %+v", i, v)
		}
		u, err := url.Parse(v.URL)
		if err != nil {
			t.Fatalf("parsing %q: %v", v.URL, err)
		}
		q := u.Query()
		if q.Get("size") != "1200x675" || q.Get("pano") != "pano1" || q.Get("key") != "k" {
			t.Errorf("view %d query = %v", i, q)
		}
	}

	if p := c.PreviewURL("pano1"); !strings.Contains(p, "size=600x400") || !strings.Contains(p, "heading=0") {
		t.Errorf("PreviewURL = %q", p)
	}
}

func TestViewerLink(t *testing.T) {
	want := "https://www.google.com/maps/@?api=1&map_action=pano&pano=abc"
	if got := streetview.ViewerLink("abc"); got != want {
		t.Errorf("ViewerLink = %q, want %q", got, want)
	}
}
