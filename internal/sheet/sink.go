package sheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MikolajSzawerda/find-me-nest/internal/offer"
	"github.com/MikolajSzawerda/find-me-nest/logger"
	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// Column layout of one spreadsheet row, A through O
const (
	colStatus = iota
	colClosestMetro
	colBaseCost
	colTotalCost
	colFullURL
	colArea
	colAddress
	colWalkingTime
	colTransitTime
	colRent
	colOfferID
	colSlug
	colAvailableFrom
	colTotalMonthlyCost
	colKeyAdvantages
	columnCount
)

const notAvailable = "N/A"

// statusColors backs the status cell with the row color
var statusColors = map[string]*sheets.Color{
	"GREEN": {Red: 0.72, Green: 0.88, Blue: 0.8},
	"RED":   {Red: 0.96, Green: 0.78, Blue: 0.76},
}

// Sink writes processed offers to a Google Sheets spreadsheet. Rows are keyed
// on the offer slug; a slug already present gets its row updated in place,
// everything else is appended.
type Sink struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger

	// numeric grid ID of sheetName, resolved on first use
	gridID       int64
	gridResolved bool
}

// NewSink creates a sink authenticated with a service account credentials file
func NewSink(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*Sink, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, apperrors.NewConfiguration("failed to create Sheets service", err)
	}
	return &Sink{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           logger.ForComponent("sheet"),
	}, nil
}

// Upsert writes one processed offer. An authorization failure is fatal; every
// other error only affects this offer.
func (s *Sink) Upsert(ctx context.Context, p *offer.Processed) error {
	slug := p.Offer.Slug

	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, s.rangeOf("L:L")).
		Context(ctx).
		Do()
	if err != nil {
		return s.sinkError(slug, "failed to read slug column", err)
	}

	values := rowValues(p)
	row := findRowBySlug(resp.Values, slug)

	if row >= 0 {
		target := fmt.Sprintf("%s!A%d:O%d", s.sheetName, row+1, row+1)
		_, err = s.service.Spreadsheets.Values.
			Update(s.spreadsheetID, target, &sheets.ValueRange{Values: [][]interface{}{values}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return s.sinkError(slug, "failed to update row", err)
		}
		s.colorStatusCell(ctx, slug, row+1, p.Status())
		s.log.Info().Str("slug", slug).Int("row", row+1).Msg("Updated spreadsheet row")
		return nil
	}

	appendResp, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rangeOf("A:O"), &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return s.sinkError(slug, "failed to append row", err)
	}
	if appendResp.Updates != nil {
		s.colorStatusCell(ctx, slug, rowFromRange(appendResp.Updates.UpdatedRange), p.Status())
	}
	s.log.Info().Str("slug", slug).Str("status", p.Status()).Msg("Appended spreadsheet row")
	return nil
}

// colorStatusCell backs the status cell with the GREEN/RED color, best effort.
// row is one-based; zero means the written row is unknown.
func (s *Sink) colorStatusCell(ctx context.Context, slug string, row int, status string) {
	color, ok := statusColors[status]
	if !ok || row <= 0 {
		return
	}

	gridID, err := s.sheetID(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("slug", slug).Msg("Failed to resolve sheet ID for status color")
		return
	}

	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          gridID,
					StartRowIndex:    int64(row - 1),
					EndRowIndex:      int64(row),
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{BackgroundColor: color},
				},
				Fields: "userEnteredFormat.backgroundColor",
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		s.log.Warn().Err(err).Str("slug", slug).Msg("Failed to color status cell")
	}
}

// sheetID resolves the numeric grid ID of the configured sheet name
func (s *Sink) sheetID(ctx context.Context) (int64, error) {
	if s.gridResolved {
		return s.gridID, nil
	}

	spreadsheet, err := s.service.Spreadsheets.
		Get(s.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return 0, err
	}

	for _, sh := range spreadsheet.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheetName {
			s.gridID = sh.Properties.SheetId
			s.gridResolved = true
			return s.gridID, nil
		}
	}
	return 0, fmt.Errorf("spreadsheet carries no sheet named %s", s.sheetName)
}

// ExistingOfferIDs returns the offer IDs already present in the sheet, read
// from the offer ID column. The lister uses them to skip known offers.
func (s *Sink) ExistingOfferIDs(ctx context.Context) (map[string]struct{}, error) {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, s.rangeOf("K:K")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, s.sinkError("", "failed to read offer ID column", err)
	}

	ids := make(map[string]struct{})
	for i, row := range resp.Values {
		// First row is the header
		if i == 0 || len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func (s *Sink) rangeOf(cells string) string {
	return fmt.Sprintf("%s!%s", s.sheetName, cells)
}

// sinkError classifies a Sheets API error; 401 and 403 mean every later call
// would fail too, so they abort the batch
func (s *Sink) sinkError(slug, message string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return apperrors.NewSinkAuth(slug, message, err)
		}
	}
	return apperrors.NewSink(slug, message, err)
}

// rowValues flattens a processed offer into the A through O spreadsheet row
func rowValues(p *offer.Processed) []interface{} {
	values := make([]interface{}, columnCount)

	values[colStatus] = p.Status()
	values[colClosestMetro] = p.Commute.Station
	values[colBaseCost] = strconv.FormatFloat(p.Offer.BaseCost, 'f', -1, 64)
	values[colTotalCost] = strconv.FormatFloat(p.Offer.TotalCost, 'f', -1, 64)
	values[colFullURL] = p.Offer.URL
	values[colArea] = orNA(p.Offer.Area)
	values[colAddress] = orNA(p.Offer.Address)
	values[colWalkingTime] = orNA(p.Commute.WalkingTime)
	values[colTransitTime] = orNA(p.Commute.TransitTime)
	values[colRent] = strconv.FormatFloat(p.Offer.Rent, 'f', -1, 64)
	values[colOfferID] = strconv.FormatInt(p.Offer.ID, 10)
	values[colSlug] = p.Offer.Slug
	values[colAvailableFrom] = orNA(p.Analysis.AvailableFrom)
	values[colTotalMonthlyCost] = orNA(p.Analysis.TotalMonthlyCost)
	values[colKeyAdvantages] = orNA(p.Analysis.KeyAdvantages)

	return values
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// rowFromRange extracts the one-based row number from an A1 range like
// "Sheet1!A5:O5", returning zero when the range does not carry one
func rowFromRange(a1 string) int {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.Index(a1, ":"); i >= 0 {
		a1 = a1[:i]
	}
	digits := strings.TrimLeft(a1, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	row, err := strconv.Atoi(digits)
	if err != nil || row <= 0 {
		return 0
	}
	return row
}

// findRowBySlug returns the zero-based row index whose first cell equals slug,
// or -1 when the slug is not present
func findRowBySlug(values [][]interface{}, slug string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if s, ok := row[0].(string); ok && s == slug {
			return i
		}
	}
	return -1
}
