package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

func sampleDashboard() services.Dashboard {
	return services.Dashboard{
		UserID:     "u1",
		From:       time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		MonthKey:   "2025-10",
		TotalCents: 4000,
		Count:      3,
		Status:     core.OnTrackHigh,
		Progress:   80,
		Categories: []services.CategoryView{
			{Name: "Food", AmountCents: 3000, Count: 2, Share: 75},
			{Name: "Home", AmountCents: 1000, Count: 1, Share: 25},
		},
	}
}

func TestReportRows(t *testing.T) {
	rows := reportRows(sampleDashboard())

	require.Len(t, rows, 6)
	assert.Equal(t, []any{"Month", "User", "Category", "Amount", "Count", "Share %"}, rows[0])
	assert.Equal(t, []any{"2025-10", "u1", "Food", 30.0, 2, 75.0}, rows[1])
	assert.Equal(t, []any{"2025-10", "u1", "Total", 40.0, 3, ""}, rows[3])
	assert.Equal(t, "on_track_high", rows[4][3])
	assert.Equal(t, 80.0, rows[5][3])
}

func TestReportRows_NoExpenses(t *testing.T) {
	rows := reportRows(services.Dashboard{MonthKey: "2025-11", UserID: "u1", Status: core.NoGoals})
	require.Len(t, rows, 4)
	assert.Equal(t, "Total", rows[1][2])
	assert.Equal(t, 0.0, rows[1][3])
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"Reports", "2025 Reports"},
		{" Reports ", "2025 Reports"},
		{"2024 Reports", "2024 Reports"},
		{"1234Reports", "2025 1234Reports"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, yearPrefixedName(tt.base, 2025), tt.base)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.EqualError(t, err, "missing spreadsheet id")

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = New(context.Background(), Options{SpreadsheetID: "sheet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Options{SpreadsheetID: "sheet", CredentialsFile: "/nonexistent/creds.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestExportMonth(t *testing.T) {
	var gotPath, gotInput string
	var gotBody gsheet.ValueRange
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInput = r.URL.Query().Get("valueInputOption")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet","updates":{"updatedRange":"'2025 Reports'!A10:F15"}}`))
	}))
	defer ts.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(ts.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	exp := newWithService(svc, Options{SpreadsheetID: "sheet"})
	ref, err := exp.ExportMonth(context.Background(), sampleDashboard())
	require.NoError(t, err)

	assert.Equal(t, "'2025 Reports'!A10:F15", ref)
	assert.True(t, strings.HasSuffix(gotPath, ":append"), gotPath)
	assert.Contains(t, gotPath, "2025 Reports")
	assert.Len(t, gotBody.Values, 6)
	assert.Equal(t, "RAW", gotInput, "user text must not be evaluated as formulas")
}

func TestExportMonth_UpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer ts.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(ts.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	_, err = newWithService(svc, Options{SpreadsheetID: "sheet", SheetName: "Budget"}).
		ExportMonth(context.Background(), sampleDashboard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append to 2025 Budget")
}
