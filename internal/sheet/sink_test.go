package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikolajSzawerda/find-me-nest/internal/offer"
	"github.com/MikolajSzawerda/find-me-nest/logger"
	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

func testProcessed() *offer.Processed {
	return &offer.Processed{
		Offer: offer.Offer{
			Slug:      "mieszkanie-metro-wilanowska-ID101",
			ID:        101,
			URL:       "https://www.otodom.pl/pl/oferta/mieszkanie-metro-wilanowska-ID101",
			Address:   "Pulawska, Mokotow, Warszawa",
			BaseCost:  4200,
			Rent:      650,
			TotalCost: 4850,
			Area:      "48 m2",
		},
		Commute: offer.Commute{
			Station:     "Wilanowska",
			DistanceKm:  0.4,
			WithinRange: true,
			WalkingTime: "6 min",
			TransitTime: "3 min",
		},
		Analysis: offer.Analysis{
			AvailableFrom:    "2026-09-01",
			TotalMonthlyCost: "4850 PLN",
			KeyAdvantages:    "blisko metra, balkon",
		},
	}
}

// fakeSheets emulates the slice of the Sheets API the sink uses: slug and
// offer ID column reads, row update, row append and the status color request.
type fakeSheets struct {
	slugCol [][]interface{}
	idCol   [][]interface{}

	updates    []string
	appends    int
	coloredRow []int64
	failGet    int
}

func (f *fakeSheets) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
			if f.failGet != 0 {
				w.WriteHeader(f.failGet)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":"denied"}}`, f.failGet)
				return
			}
			values := f.slugCol
			if strings.Contains(path, "K:K") {
				values = f.idCol
			}
			json.NewEncoder(w).Encode(&sheets.ValueRange{Values: values})

		case r.Method == http.MethodPut:
			target := path[strings.LastIndex(path, "/values/")+len("/values/"):]
			f.updates = append(f.updates, target)
			var body sheets.ValueRange
			json.NewDecoder(r.Body).Decode(&body)
			f.slugCol[rowFromRange(target)-1] = []interface{}{body.Values[0][colSlug]}
			json.NewEncoder(w).Encode(&sheets.UpdateValuesResponse{})

		case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
			f.appends++
			var body sheets.ValueRange
			json.NewDecoder(r.Body).Decode(&body)
			f.slugCol = append(f.slugCol, []interface{}{body.Values[0][colSlug]})
			row := len(f.slugCol)
			json.NewEncoder(w).Encode(&sheets.AppendValuesResponse{
				Updates: &sheets.UpdateValuesResponse{
					UpdatedRange: fmt.Sprintf("Sheet1!A%d:O%d", row, row),
				},
			})

		case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
			var body sheets.BatchUpdateSpreadsheetRequest
			json.NewDecoder(r.Body).Decode(&body)
			if len(body.Requests) == 1 && body.Requests[0].RepeatCell != nil {
				f.coloredRow = append(f.coloredRow, body.Requests[0].RepeatCell.Range.StartRowIndex)
			}
			json.NewEncoder(w).Encode(&sheets.BatchUpdateSpreadsheetResponse{})

		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(&sheets.Spreadsheet{
				Sheets: []*sheets.Sheet{
					{Properties: &sheets.SheetProperties{SheetId: 77, Title: "Sheet1"}},
				},
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestSink(t *testing.T, fake *fakeSheets) *Sink {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	service, err := sheets.NewService(context.Background(),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	return &Sink{
		service:       service,
		spreadsheetID: "sheet-123",
		sheetName:     "Sheet1",
		log:           logger.ForComponent("sheet"),
	}
}

func TestUpsertAppendsThenUpdates(t *testing.T) {
	fake := &fakeSheets{slugCol: [][]interface{}{{"slug"}}}
	sink := newTestSink(t, fake)
	p := testProcessed()

	// First run: slug is absent, the row is appended
	require.NoError(t, sink.Upsert(context.Background(), p))
	assert.Equal(t, 1, fake.appends)
	assert.Empty(t, fake.updates)

	// Second run of the same offer updates the row in place
	require.NoError(t, sink.Upsert(context.Background(), p))
	assert.Equal(t, 1, fake.appends, "re-running the same offer must never append a duplicate")
	assert.Equal(t, []string{"Sheet1!A2:O2"}, fake.updates)

	// Both writes colored the status cell of row 2
	assert.Equal(t, []int64{1, 1}, fake.coloredRow)
}

func TestUpsertUpdatesExistingRow(t *testing.T) {
	fake := &fakeSheets{slugCol: [][]interface{}{
		{"slug"},
		{"other-offer-ID200"},
		{"mieszkanie-metro-wilanowska-ID101"},
	}}
	sink := newTestSink(t, fake)

	require.NoError(t, sink.Upsert(context.Background(), testProcessed()))
	assert.Zero(t, fake.appends)
	assert.Equal(t, []string{"Sheet1!A3:O3"}, fake.updates)
}

func TestUpsertAuthFailureIsFatal(t *testing.T) {
	fake := &fakeSheets{failGet: http.StatusUnauthorized}
	sink := newTestSink(t, fake)

	err := sink.Upsert(context.Background(), testProcessed())
	require.Error(t, err)
	assert.Equal(t, apperrors.StageSink, apperrors.StageOf(err))
	assert.True(t, apperrors.IsFatal(err))
}

func TestUpsertServerFailureIsRecoverable(t *testing.T) {
	fake := &fakeSheets{failGet: http.StatusInternalServerError}
	sink := newTestSink(t, fake)

	err := sink.Upsert(context.Background(), testProcessed())
	require.Error(t, err)
	assert.Equal(t, apperrors.StageSink, apperrors.StageOf(err))
	assert.False(t, apperrors.IsFatal(err))
}

func TestExistingOfferIDs(t *testing.T) {
	fake := &fakeSheets{idCol: [][]interface{}{
		{"offer_id"},
		{"101"},
		{"102"},
		{},
	}}
	sink := newTestSink(t, fake)

	ids, err := sink.ExistingOfferIDs(context.Background())
	require.NoError(t, err)

	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "101")
	assert.Contains(t, ids, "102")
	assert.NotContains(t, ids, "offer_id")
}

func TestRowValues(t *testing.T) {
	values := rowValues(testProcessed())
	require.Len(t, values, 15)

	assert.Equal(t, "GREEN", values[colStatus])
	assert.Equal(t, "Wilanowska", values[colClosestMetro])
	assert.Equal(t, "4200", values[colBaseCost])
	assert.Equal(t, "4850", values[colTotalCost])
	assert.Equal(t, "https://www.otodom.pl/pl/oferta/mieszkanie-metro-wilanowska-ID101", values[colFullURL])
	assert.Equal(t, "48 m2", values[colArea])
	assert.Equal(t, "Pulawska, Mokotow, Warszawa", values[colAddress])
	assert.Equal(t, "6 min", values[colWalkingTime])
	assert.Equal(t, "3 min", values[colTransitTime])
	assert.Equal(t, "650", values[colRent])
	assert.Equal(t, "101", values[colOfferID])
	assert.Equal(t, "mieszkanie-metro-wilanowska-ID101", values[colSlug])
	assert.Equal(t, "2026-09-01", values[colAvailableFrom])
	assert.Equal(t, "4850 PLN", values[colTotalMonthlyCost])
	assert.Equal(t, "blisko metra, balkon", values[colKeyAdvantages])
}

func TestRowValuesFillsMissingFields(t *testing.T) {
	p := testProcessed()
	p.Commute = offer.Commute{Station: "Kabaty", DistanceKm: 3.2}
	p.Analysis = offer.Analysis{}
	p.Offer.Area = ""

	values := rowValues(p)

	assert.Equal(t, "RED", values[colStatus])
	assert.Equal(t, "N/A", values[colArea])
	assert.Equal(t, "N/A", values[colWalkingTime])
	assert.Equal(t, "N/A", values[colTransitTime])
	assert.Equal(t, "N/A", values[colAvailableFrom])
	assert.Equal(t, "N/A", values[colTotalMonthlyCost])
	assert.Equal(t, "N/A", values[colKeyAdvantages])
}

func TestFindRowBySlug(t *testing.T) {
	values := [][]interface{}{
		{"slug"},
		{"first-offer-ID1"},
		{},
		{"second-offer-ID2"},
	}

	assert.Equal(t, 1, findRowBySlug(values, "first-offer-ID1"))
	assert.Equal(t, 3, findRowBySlug(values, "second-offer-ID2"))
	assert.Equal(t, -1, findRowBySlug(values, "missing-offer-ID3"))
	assert.Equal(t, -1, findRowBySlug(nil, "anything"))
}

func TestRowFromRange(t *testing.T) {
	tests := []struct {
		a1   string
		want int
	}{
		{"Sheet1!A5:O5", 5},
		{"Sheet1!A12", 12},
		{"A3:O3", 3},
		{"Sheet1!A:O", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rowFromRange(tt.a1), "rowFromRange(%q)", tt.a1)
	}
}
