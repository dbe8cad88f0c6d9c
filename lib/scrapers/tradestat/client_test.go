package tradestat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const formPage = `
<html><body>
<form method="POST">
<input type="hidden" name="_token" value="tok-123">
</form>
</body></html>`

const reportPage = `
<html><body>
<table id="example1">
<tr><th>S.No.</th><th>Country</th><th>2022-2023</th><th>2023-2024</th><th>%Growth</th><th>2022-2023</th><th>2023-2024</th><th>%Growth</th></tr>
<tr><td>1</td><td>U S A</td><td>100.00</td><td>200.00</td><td>100.00</td><td>10</td><td>20</td><td>100.00</td></tr>
</table>
</body></html>`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{
		BaseUrl: server.URL,
		Timeout: time.Second * 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestBootstrap(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(formPage))
	}))

	token, err := client.Bootstrap(context.Background(), "/eidb/commodity_wise_all_countries_export")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "tok-123", token)
}

func TestBootstrapMissingToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Session expired.</body></html>"))
	}))

	_, err := client.Bootstrap(context.Background(), "/eidb/commodity_wise_all_countries_export")
	require.ErrorIs(t, err, ErrNoToken)
}

func TestFetchReport(t *testing.T) {
	var posted url.Values
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(formPage))
		case http.MethodPost:
			require.NoError(t, r.ParseForm())
			posted = r.PostForm
			w.Write([]byte(reportPage))
		}
	}))

	report, ok := Lookup("commodity_wise_all_countries")
	require.True(t, ok)

	html, err := client.FetchReport(context.Background(), report, Request{
		Direction: Import,
		Entity:    "85171290",
		Period:    "2023-24",
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, html, "U S A")

	require.Equal(t, "tok-123", posted.Get("_token"))
	require.Equal(t, "85171290", posted.Get("Eidbhscode_cmace"))
	require.Equal(t, "2023-24", posted.Get("EidbYear_cmace"))
	// imports go through the export endpoint, selected by the report flag
	require.Equal(t, "1", posted.Get("EidbReport_cmace"))
}

// capturePost fetches one report slice against a stub portal and
// returns the form payload the client posted.
func capturePost(t *testing.T, feature string, req Request) url.Values {
	t.Helper()
	var posted url.Values
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(formPage))
		case http.MethodPost:
			require.NoError(t, r.ParseForm())
			posted = r.PostForm
			w.Write([]byte(reportPage))
		}
	}))

	report, ok := Lookup(feature)
	require.True(t, ok)
	if _, err := client.FetchReport(context.Background(), report, req); err != nil {
		t.Fatal(err)
	}
	return posted
}

func TestFetchMonthlyCommodityWisePayload(t *testing.T) {
	posted := capturePost(t, "meidb_commodity_wise", Request{
		Direction: Export,
		Entity:    "85171290",
		Period:    "2024",
		Month:     "4",
	})
	require.Equal(t, "tok-123", posted.Get("_token"))
	require.Equal(t, "4", posted.Get("ddMonth"))
	require.Equal(t, "2024", posted.Get("ddYear"))
	require.Equal(t, "8", posted.Get("ddCommodityLevel"))
	require.Equal(t, "specific", posted.Get("comlev"))
	require.Equal(t, "85171290", posted.Get("comval"))
	require.Equal(t, "1", posted.Get("ddReportVal"))
	require.Equal(t, "1", posted.Get("ddReportYear"))

	posted = capturePost(t, "meidb_commodity_wise", Request{
		Direction: Import,
		Entity:    "8517",
		Period:    "2024",
		Month:     "11",
	})
	require.Equal(t, "11", posted.Get("imddMonth"))
	require.Equal(t, "2024", posted.Get("imddYear"))
	require.Equal(t, "4", posted.Get("imddCommodityLevel"))
	// comlev and comval stay unprefixed on the import form too
	require.Equal(t, "specific", posted.Get("comlev"))
	require.Equal(t, "8517", posted.Get("comval"))
	require.Empty(t, posted.Get("ddMonth"))
}

func TestFetchMonthlyAllCountriesPayload(t *testing.T) {
	posted := capturePost(t, "meidb_commodity_wise_all_countries", Request{
		Direction: Export,
		Entity:    "85171290",
		Period:    "2024",
		Month:     "4",
	})
	require.Equal(t, "85171290", posted.Get("cwacexHSCODE"))
	require.Equal(t, "4", posted.Get("cwacexMonth"))
	require.Equal(t, "2024", posted.Get("cwacexYear"))
	require.Equal(t, "1", posted.Get("cwacexReportVal"))

	posted = capturePost(t, "meidb_commodity_wise_all_countries", Request{
		Direction: Import,
		Entity:    "85171290",
		Period:    "2024",
		Month:     "4",
	})
	require.Equal(t, "85171290", posted.Get("cwacimHSCODE"))
	require.Equal(t, "4", posted.Get("cwacimMonth"))
	require.Empty(t, posted.Get("cwacexHSCODE"))

	report, _ := Lookup("meidb_commodity_wise_all_countries")
	require.Equal(t, "/meidb/commodity_wise_all_countries_export", report.postPath(Export))
	require.Equal(t, "/meidb/commodity_wise_all_countries_import", report.postPath(Import))
}

func TestFetchReportServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(formPage))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))

	report, _ := Lookup("commodity_wise_all_countries")
	_, err := client.FetchReport(context.Background(), report, Request{
		Direction: Export,
		Entity:    "85171290",
		Period:    "2023-24",
	})
	require.Error(t, err)
}

func TestRegistryPostPaths(t *testing.T) {
	// most reports pair a dedicated import endpoint with the export one
	report, ok := Lookup("region_wise")
	require.True(t, ok)
	require.Equal(t, "/eidb/region_wise_export", report.postPath(Export))
	require.Equal(t, "/eidb/region_wise_import", report.postPath(Import))

	// the all-countries report serves both directions from one endpoint
	report, ok = Lookup("commodity_wise_all_countries")
	require.True(t, ok)
	require.Equal(t, report.postPath(Export), report.postPath(Import))
}
