package netfetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/netfetch"
)

func TestFetchText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"controls":[]}`)
	}))
	defer srv.Close()

	f := netfetch.New(time.Second, zap.NewNop())
	body, err := f.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchText failed: %v", err)
	}
	if body != `{"controls":[]}` {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestFetchBinaryNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := netfetch.New(time.Second, zap.NewNop())
	if _, err := f.FetchBinary(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestFetchFollowsBoundedRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Redirect forever; the client must give up on its own.
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	f := netfetch.New(time.Second, zap.NewNop())
	if _, err := f.FetchText(context.Background(), srv.URL); err == nil {
		t.Fatal("expected redirect loop to fail")
	}
}
