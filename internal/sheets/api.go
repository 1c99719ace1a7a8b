package sheets

import (
	"context"

	gsheets "google.golang.org/api/sheets/v4"
)

// API is the subset of the Sheets service the storage uses.
type API interface {
	Values(ctx context.Context, rng string) ([][]any, error)
	Write(ctx context.Context, rng string, rows [][]any, inputOption string) error
	AddSheet(ctx context.Context, title string) error
	Title(ctx context.Context) (string, error)
}

type serviceAPI struct {
	svc           *gsheets.Service
	spreadsheetID string
}

func (a *serviceAPI) Values(ctx context.Context, rng string) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(a.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (a *serviceAPI) Write(ctx context.Context, rng string, rows [][]any, inputOption string) error {
	_, err := a.svc.Spreadsheets.Values.Update(a.spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption(inputOption).
		Context(ctx).
		Do()
	return err
}

func (a *serviceAPI) AddSheet(ctx context.Context, title string) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}
	_, err := a.svc.Spreadsheets.BatchUpdate(a.spreadsheetID, req).Context(ctx).Do()
	return err
}

func (a *serviceAPI) Title(ctx context.Context) (string, error) {
	resp, err := a.svc.Spreadsheets.Get(a.spreadsheetID).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Properties == nil {
		return "", nil
	}
	return resp.Properties.Title, nil
}
