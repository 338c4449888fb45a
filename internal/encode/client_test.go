package encode_test

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nishad/encode-audit/internal/encode"
	"github.com/nishad/encode-audit/internal/errors"
	"github.com/nishad/encode-audit/internal/testutil"
)

func newTestClient(t *testing.T, p *testutil.Portal, key, secret string) *encode.Client {
	t.Helper()
	creds, err := encode.Credentials{Key: key, Secret: secret, Server: p.URL + "/"}.Validate()
	testutil.RequireNoError(t, err, "Validate")
	return encode.NewClient(creds, 5*time.Second)
}

func TestClientMatrix(t *testing.T) {
	p := testutil.NewPortal(t)
	p.Set("/matrix/?type=Experiment&status=released", testutil.MatrixJSON(
		[]string{"DNase-seq"},
		[]testutil.MatrixGroup{{Type: "tissue", Biosamples: []testutil.MatrixBiosample{{Name: "liver", Counts: []int{2}}}}},
	))

	c := newTestClient(t, p, "", "")
	result, err := c.Matrix(context.Background(), "/matrix/?type=Experiment&status=released")
	testutil.RequireNoError(t, err, "Matrix")

	testutil.AssertEqual(t, result.Groups[0].Biosamples[0].Counts[0], 2, "count")
	testutil.AssertEqual(t, c.URL("/matrix/"), p.URL+"/matrix/", "URL strips trailing slash")
	testutil.AssertEqual(t, c.Server(), p.URL, "server")
}

func TestClientSearchNoResults(t *testing.T) {
	p := testutil.NewPortal(t)
	var logs bytes.Buffer

	c := newTestClient(t, p, "", "")
	c.SetLogger(log.New(&logs, "", 0))

	result, err := c.Search(context.Background(), "/search/?type=Experiment&biosample_term_name=nowhere")
	testutil.RequireNoError(t, err, "Search on 404")

	testutil.AssertEqual(t, result.Total, 0, "total")
	if !strings.Contains(logs.String(), "No results found") {
		t.Errorf("expected no-results trace, got %q", logs.String())
	}
}

func TestClientSearchPreservesQuery(t *testing.T) {
	p := testutil.NewPortal(t)
	q := "/search/?type=Experiment&biosample_term_name=liver&assay_term_name=RNA-seq&replicates.library.size_range!=<200"
	p.Set(q, testutil.SearchJSON(4, testutil.StandardFacets()...))

	c := newTestClient(t, p, "", "")
	result, err := c.Search(context.Background(), q)
	testutil.RequireNoError(t, err, "Search")

	testutil.AssertEqual(t, result.Total, 4, "total")
	reqs := p.Requests()
	if len(reqs) != 1 || reqs[0] != q {
		t.Errorf("expected single request %q, got %v", q, reqs)
	}
}

func TestClientBasicAuth(t *testing.T) {
	p := testutil.NewPortal(t)
	p.Key, p.Secret = "ABCD", "s3cret"
	p.Set("/search/?type=Experiment", testutil.SearchJSON(1))

	good := newTestClient(t, p, "ABCD", "s3cret")
	_, err := good.Search(context.Background(), "/search/?type=Experiment")
	testutil.RequireNoError(t, err, "Search with valid key")

	bad := newTestClient(t, p, "ABCD", "wrong")
	_, err = bad.Search(context.Background(), "/search/?type=Experiment")
	if !errors.IsKind(err, errors.KindAuth) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestClientServerError(t *testing.T) {
	p := testutil.NewPortal(t)
	p.SetStatus("/search/?type=Experiment", http.StatusInternalServerError, []byte("boom"))

	c := newTestClient(t, p, "", "")
	_, err := c.Search(context.Background(), "/search/?type=Experiment")
	if !errors.IsKind(err, errors.KindNetwork) {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestClientMalformedBody(t *testing.T) {
	p := testutil.NewPortal(t)
	p.Set("/matrix/?type=Experiment", []byte(`{"total": 1}`))

	c := newTestClient(t, p, "", "")
	_, err := c.Matrix(context.Background(), "/matrix/?type=Experiment")
	if !errors.IsKind(err, errors.KindParse) {
		t.Errorf("expected malformed response error, got %v", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	creds, _ := encode.Credentials{Server: "http://127.0.0.1:1"}.Validate()
	c := encode.NewClient(creds, time.Second)

	_, err := c.Search(context.Background(), "/search/?type=Experiment")
	if !errors.IsKind(err, errors.KindNetwork) {
		t.Errorf("expected network error, got %v", err)
	}
}
