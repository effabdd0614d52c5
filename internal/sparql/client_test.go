package sparql

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
)

const resultsJSON = `{
  "head": {"vars": ["s", "label", "n", "b"]},
  "results": {"bindings": [
    {"s": {"type": "uri", "value": "urn:a"},
     "label": {"type": "literal", "value": "chat", "xml:lang": "fr"},
     "n": {"type": "literal", "value": "1", "datatype": "http://www.w3.org/2001/XMLSchema#integer"},
     "b": {"type": "bnode", "value": "b0"}},
    {"s": {"type": "uri", "value": "urn:b"},
     "n": {"type": "typed-literal", "value": "2", "datatype": "http://www.w3.org/2001/XMLSchema#integer"}}
  ]}
}`

func TestClient_Select(t *testing.T) {
	var gotQuery, gotAccept, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("query")
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", ResultsMediaType)
		_, _ = w.Write([]byte(resultsJSON))
	}))
	defer srv.Close()

	c := New(srv.URL+"/ds/query", WithTimeout(5*time.Second))
	rows, err := c.Select(context.Background(), query.Request{
		Name:    "q",
		Dialect: query.SPARQL,
		Text:    "SELECT * WHERE { ?s ?p ?o }",
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * WHERE { ?s ?p ?o }", gotQuery)
	assert.Equal(t, ResultsMediaType, gotAccept)
	assert.True(t, strings.HasPrefix(gotContentType, "application/x-www-form-urlencoded"))

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"s", "label", "n", "b"}, rows[0].Vars())

	label, _ := rows[0].Get("label")
	assert.Equal(t, ir.NewLangLiteral("chat", "fr"), label)
	b, _ := rows[0].Get("b")
	assert.Equal(t, ir.Blank("b0"), b)

	assert.Equal(t, []string{"s", "n"}, rows[1].Vars())
	n, _ := rows[1].Get("n")
	assert.Equal(t, ir.Int(2), n)
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Parse error: line 1"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Select(context.Background(), query.Request{Name: "bad", Dialect: query.SPARQL, Text: "SELEC"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "sparql query bad: HTTP 400: Parse error: line 1", err.Error())
}

func TestClient_NonResultsBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     string
	}{
		{"html page", "text/html", "<html><body>Fuseki</body></html>", "decode results"},
		{"json without head", "application/json", `{"boolean": true}`, "missing head.vars"},
		{"untyped results", "text/plain", `{"head": {"vars": []}, "results": {"bindings": []}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			rows, err := New(srv.URL).Select(context.Background(), query.Request{Name: "q", Dialect: query.SPARQL, Text: "SELECT * {}"})
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Empty(t, rows)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), tt.contentType)
		})
	}
}

func TestClient_WrongDialect(t *testing.T) {
	_, err := New("http://localhost:1").Select(context.Background(), query.Request{Dialect: query.SQL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run sql")
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).Select(ctx, query.Request{Dialect: query.SPARQL, Text: "SELECT * {}"})
	require.Error(t, err)
}

func TestClient_Endpoint(t *testing.T) {
	assert.Equal(t, "http://h:3030/ds/query", New("http://h:3030/ds/query").Endpoint())
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("x", maxErrorBody+10)
	got := excerpt([]byte(long))
	assert.Len(t, got, maxErrorBody+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestValue_UnknownType(t *testing.T) {
	r, err := ParseResults([]byte(`{"head": {"vars": ["x"]}, "results": {"bindings": [{"x": {"type": "triple", "value": "t"}}]}}`))
	require.NoError(t, err)

	_, err = r.Bindings()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown term type "triple"`)
}
