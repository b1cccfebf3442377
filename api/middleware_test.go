package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"gardenlog/docstore"
)

func TestGzipRequestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(`{"name":"Kale"}`)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	e := echo.New()
	var got string
	handler := GzipRequestMiddleware()(func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		got = string(body)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/plants", &buf)
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != `{"name":"Kale"}` {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestGzipRequestMiddlewareInvalidBody(t *testing.T) {
	e := echo.New()
	handler := GzipRequestMiddleware()(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})
	req := httptest.NewRequest(http.MethodPost, "/api/plants", strings.NewReader("plain text, not gzip"))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	err := handler(e.NewContext(req, httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 http error, got %v", err)
	}
}

func TestUnitOfWorkIsPerRequest(t *testing.T) {
	e := echo.New()
	store := docstore.NewMemory()
	mw := UnitOfWork(store)

	var seen []any
	handler := mw(func(c echo.Context) error {
		uow := unitOfWork(c)
		if uow == nil {
			t.Fatal("expected a unit of work")
		}
		if uow.Store() != store {
			t.Fatal("unit of work bound to the wrong store")
		}
		seen = append(seen, uow)
		return nil
	})
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/plants", nil)
		if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
			t.Fatalf("handler error: %v", err)
		}
	}
	if len(seen) != 2 || seen[0] == seen[1] {
		t.Fatalf("expected a distinct unit of work per request")
	}
}

func TestRequestLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := echo.New()
	handler := RequestLog(logger)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/plants", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/plants")
	if err := handler(c); err == nil {
		t.Fatal("expected the handler error to be returned")
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Level != log.InfoLevel || entry.Message != "request.metrics" {
		t.Fatalf("unexpected entry %v %q", entry.Level, entry.Message)
	}
	if entry.Data["status"] != http.StatusTeapot {
		t.Fatalf("expected status 418, got %v", entry.Data["status"])
	}
	if entry.Data["route"] != "/api/plants" {
		t.Fatalf("unexpected route %v", entry.Data["route"])
	}
	if _, ok := entry.Data["total_ms"]; !ok {
		t.Fatal("expected total_ms field")
	}
}
