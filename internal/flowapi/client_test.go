package flowapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestBaseURLForHost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://localhost:8000", BaseURLForHost("", "", 0))
	assert.Equal(t, "https://capture.internal:8000", BaseURLForHost("https", "capture.internal", 8000))
	assert.Equal(t, "http://[::1]:9000", BaseURLForHost("http", "::1", 9000))
}

func TestListFlows(t *testing.T) {
	t.Parallel()

	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flows", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, `{"flows":[
			{"id":1,"method":"GET","url":"/a","status":200},
			{"id":"abc","method":"POST","url":"/b","status":null,"timestamp":"1700000000.1",
			 "request":{"headers":{"Host":"x"},"content_length":3},
			 "response":{"status_code":null,"content_type":""}},
			{"method":"GET","url":"/no-id"},
			{"id":"bad","status":"200"},
			42,
			null
		]}`)
	})

	flows, err := c.ListFlows(context.Background())
	require.NoError(t, err)
	require.Len(t, flows, 2)

	assert.Equal(t, model.FlowID("1"), flows[0].ID)
	require.NotNil(t, flows[0].Status)
	assert.Equal(t, 200, *flows[0].Status)

	assert.Equal(t, model.FlowID("abc"), flows[1].ID)
	assert.Nil(t, flows[1].Status)
	require.NotNil(t, flows[1].Request)
	assert.Equal(t, "x", flows[1].Request.Headers["Host"])
}

func TestListFlows_UnexpectedShapesAreEmpty(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`{}`, `{"flows":{"id":1}}`, `{"flows":"nope"}`, `[]`, `null`, `"text"`} {
		body := body
		t.Run(body, func(t *testing.T) {
			t.Parallel()
			c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, body)
			})
			flows, err := c.ListFlows(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, flows)
			assert.Empty(t, flows)
		})
	}
}

func TestListFlows_Errors(t *testing.T) {
	t.Parallel()

	t.Run("non-json", func(t *testing.T) {
		t.Parallel()
		c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "<html>gateway</html>")
		})
		_, err := c.ListFlows(context.Background())
		assert.Error(t, err)
	})

	t.Run("status", func(t *testing.T) {
		t.Parallel()
		c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, `{"flows":[]}`)
		})
		_, err := c.ListFlows(context.Background())
		assert.ErrorIs(t, err, ErrStatus)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, `{"flows":[]}`)
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.ListFlows(ctx)
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-postman", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"selected_flows":["1","2"]}`, string(body))
		io.WriteString(w, `{"success":true,"message":"ok","file":"collection.json"}`)
	})

	res, err := c.Generate(context.Background(), model.ArtifactPostman, []model.FlowID{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, model.GenerateResult{Success: true, Message: "ok", File: "collection.json"}, res)
}

func TestGenerate_FailureBodyOnErrorStatus(t *testing.T) {
	t.Parallel()

	c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"message":"no flows"}`)
	})

	res, err := c.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no flows", res.Message)
}

func TestGenerate_ErrorStatusWithoutJSON(t *testing.T) {
	t.Parallel()

	c := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Generate(context.Background(), model.ArtifactOpenAPI, []model.FlowID{"1"})
	assert.ErrorIs(t, err, ErrStatus)
}

func TestGenerate_UnknownKind(t *testing.T) {
	t.Parallel()

	c := NewClient("http://127.0.0.1:1")
	_, err := c.Generate(context.Background(), model.ArtifactKind("har"), []model.FlowID{"1"})
	assert.Error(t, err)
}

func TestDownloadAndSave(t *testing.T) {
	t.Parallel()

	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/download/") || !strings.HasSuffix(r.URL.Path, "openapi spec.yaml") {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "openapi: 3.0.0\n")
	})

	var buf bytes.Buffer
	require.NoError(t, c.Download(context.Background(), "openapi spec.yaml", &buf))
	assert.Equal(t, "openapi: 3.0.0\n", buf.String())

	dir := t.TempDir()
	path, err := FileSaver{Downloader: c, Dir: dir}.Save(context.Background(), "../openapi spec.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "openapi spec.yaml"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "openapi: 3.0.0\n", string(data))

	_, err = FileSaver{Downloader: c, Dir: dir}.Save(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrStatus)
	_, statErr := os.Stat(filepath.Join(dir, "missing.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDecodeFlowFile(t *testing.T) {
	t.Parallel()

	flows, err := DecodeFlowFile([]byte(`  [{"id":"1","method":"GET","url":"/a","status":200}]`))
	require.NoError(t, err)
	assert.Len(t, flows, 1)

	flows, err = DecodeFlowFile([]byte(`{"flows":[{"id":"1"},{"id":"2"}]}`))
	require.NoError(t, err)
	assert.Len(t, flows, 2)

	_, err = DecodeFlowFile([]byte(`[{"id":`))
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			io.WriteString(w, `{"status":"ok"}`)
			return
		}
		http.NotFound(w, r)
	})
	assert.NoError(t, c.Health(context.Background()))
}
