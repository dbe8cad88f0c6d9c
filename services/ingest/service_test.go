package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tradestat-ingestor/lib/delta"
	"tradestat-ingestor/lib/rawstore"
	"tradestat-ingestor/lib/scrapers/tradestat"
	"tradestat-ingestor/lib/testutil"
	"tradestat-ingestor/lib/versionstore"

	"github.com/stretchr/testify/require"
)

const formPage = `
<html><body>
<form method="POST"><input type="hidden" name="_token" value="tok-123"></form>
</body></html>`

func reportPage(usaValue string) string {
	return fmt.Sprintf(`
<html><body>
<p>Commodity:85171290 TELEPHONES FOR CELLULAR NETWORKS Unit:NOS</p>
<table id="example1">
<tr><th>S.No.</th><th>Country</th><th>2022-2023</th><th>2023-2024</th><th>%%Growth</th><th>2022-2023</th><th>2023-2024</th><th>%%Growth</th></tr>
<tr><td>1</td><td>U S A</td><td>2,188.61</td><td>%s</td><td>154.45</td><td>8,956,410</td><td>22,310,559</td><td>149.10</td></tr>
<tr><td>2</td><td>NETHERLAND</td><td>361.43</td><td>410.22</td><td>13.50</td><td>1,410,903</td><td>1,602,281</td><td>13.56</td></tr>
<tr><td colspan="2">Total</td><td>2,550.04</td><td>5,979.16</td><td>134.47</td><td>10,367,313</td><td>23,912,840</td><td>130.66</td></tr>
</table>
</body></html>`, usaValue)
}

func setupService(t *testing.T, handler http.Handler) (Service, rawstore.Store) {
	t.Helper()
	_, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "services/ingest",
	})
	t.Cleanup(cleanup)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := tradestat.NewClient(tradestat.ClientOptions{
		BaseUrl: server.URL,
		Timeout: time.Second * 5,
	})
	if err != nil {
		t.Fatal(err)
	}

	versions, err := versionstore.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	raw, err := rawstore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { raw.Close() })

	return NewService(Options{
		Client:   client,
		Versions: versions,
		Raw:      raw,
	}), raw
}

func TestIngestCycle(t *testing.T) {
	var fetches atomic.Int64
	service, raw := setupService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(formPage))
			return
		}
		// the portal revises the USA figure between the first and
		// second fetch
		if fetches.Add(1) == 1 {
			w.Write([]byte(reportPage("5,568.94")))
			return
		}
		w.Write([]byte(reportPage("5,570.00")))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	req := tradestat.Request{
		Direction: tradestat.Export,
		Entity:    "85171290",
		Period:    "2023-24",
	}

	first, err := service.Ingest(ctx, "commodity_wise_all_countries", req)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, delta.InitialData, first.Changes.ChangeType)
	require.Equal(t, delta.DriftBaseline, first.Changes.Drift)
	require.Len(t, first.Snapshot.Records, 2)
	require.Equal(t, "85171290", first.Meta.HSCode)
	require.Equal(t, "NOS", first.Meta.Unit)

	second, err := service.Ingest(ctx, "commodity_wise_all_countries", req)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, delta.DataUpdate, second.Changes.ChangeType)
	require.True(t, second.Changes.HasChanges)
	require.Equal(t, []string{"U S A"}, second.Changes.Modified)
	require.InDelta(t, 50, second.Changes.PercentChange, 0.001)
	require.Equal(t, delta.DriftCritical, second.Changes.Drift)

	change := second.Changes.FieldChanges["U S A"]["usd_curr_year"]
	require.InDelta(t, 5568.94, *change.Previous, 0.001)
	require.InDelta(t, 5570.00, *change.Current, 0.001)

	// the raw page of the latest fetch is archived
	page, err := raw.Get(ctx, "commodity_wise_all_countries", "export", "85171290", "2023-24")
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, page.Html, "5,570.00")
}

func TestIngestUnknownReport(t *testing.T) {
	service, _ := setupService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := service.Ingest(context.Background(), "no_such_report", tradestat.Request{})
	require.Error(t, err)
}

func TestIngestBatch(t *testing.T) {
	service, _ := setupService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(formPage))
			return
		}
		r.ParseForm()
		if r.PostForm.Get("EidbYear_cmace") == "2021-22" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(reportPage("5,568.94")))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	results, err := service.IngestBatch(ctx, BatchRequest{
		Feature:   "commodity_wise_all_countries",
		Direction: tradestat.Export,
		Entity:    "85171290",
		Periods:   []string{"2021-22", "2022-23", "2023-24"},
		Workers:   2,
	})

	// one period fails, the others still land
	require.Error(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "2022-23", results[0].Period)
	require.Equal(t, "2023-24", results[1].Period)
}

func TestConsolidate(t *testing.T) {
	service, _ := setupService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(formPage))
			return
		}
		w.Write([]byte(reportPage("5,568.94")))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	for _, period := range []string{"2021-22", "2022-23", "2023-24"} {
		_, err := service.Ingest(ctx, "commodity_wise_all_countries", tradestat.Request{
			Direction: tradestat.Export,
			Entity:    "85171290",
			Period:    period,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	key := versionstore.Key{
		Feature:   "commodity_wise_all_countries",
		Direction: "export",
		Entity:    "85171290",
	}
	consolidated, err := service.Consolidate(key)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, 3, consolidated.PeriodCount)
	require.Equal(t, "2023-24", consolidated.Periods[0].Period)
	require.Equal(t, "2021-22", consolidated.Periods[2].Period)
	require.Len(t, consolidated.Periods[0].Entry.Snapshot.Records, 2)

	_, err = service.Consolidate(versionstore.Key{Feature: "region_wise", Direction: "export", Entity: "5"})
	require.Error(t, err)
}
