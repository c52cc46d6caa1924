package printer_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"printlapse/internal/config"
	"printlapse/internal/printer"
)

func clientForServer(t *testing.T, srv *httptest.Server) *printer.Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Printer.Host = host
	cfg.Printer.StatusPort = port
	cfg.Printer.CameraPort = port
	return printer.NewClient(&cfg, nil)
}

func TestJobStatusPrinting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/print_job" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"state":"printing","name":"benchy.gcode","time_elapsed":120,"time_total":600}`))
	}))
	defer srv.Close()

	status := clientForServer(t, srv).JobStatus(context.Background())
	if status.State != printer.StatePrinting {
		t.Fatalf("unexpected state %v", status.State)
	}
	if status.Name != "benchy.gcode" {
		t.Fatalf("unexpected name %q", status.Name)
	}
	if status.TimeRemaining() != 480 {
		t.Fatalf("unexpected remaining %v", status.TimeRemaining())
	}
}

func TestJobStatusNoJobOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	status := clientForServer(t, srv).JobStatus(context.Background())
	if status.State != printer.StateNoJob {
		t.Fatalf("expected no_job, got %v", status.State)
	}
}

func TestJobStatusTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := clientForServer(t, srv)
	srv.Close()

	status := client.JobStatus(context.Background())
	if status.State != printer.StateTransportError {
		t.Fatalf("expected transport_error, got %v", status.State)
	}
	if status.Err == nil {
		t.Fatal("expected cause to be retained")
	}
}

func TestIsOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/printer/status" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"idle"}`))
	}))
	client := clientForServer(t, srv)

	if !client.IsOnline(context.Background()) {
		t.Fatal("expected online")
	}
	srv.Close()
	if client.IsOnline(context.Background()) {
		t.Fatal("expected offline after server close")
	}
}

func TestSnapshot(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "snapshot" {
			http.NotFound(w, r)
			return
		}
		w.Write(image)
	}))
	client := clientForServer(t, srv)

	got := client.Snapshot(context.Background())
	if string(got) != string(image) {
		t.Fatalf("unexpected snapshot bytes: %v", got)
	}

	srv.Close()
	if client.Snapshot(context.Background()) != nil {
		t.Fatal("expected nil snapshot after server close")
	}
}
