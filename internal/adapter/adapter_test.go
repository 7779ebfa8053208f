package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/upi-statement-converter/internal/extractor"
	"github.com/insightdelivered/upi-statement-converter/internal/extractor/pdftest"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

func TestRegistryDetect(t *testing.T) {
	reg := DefaultRegistry(nil)

	tests := []struct {
		name         string
		upload       models.Upload
		wantApp      models.AppID
		wantConf     float64
		wantPassword bool
	}{
		{
			name: "google takeout archive",
			upload: models.Upload{Name: "takeout.zip", Data: buildZip(t, map[string]string{
				"Takeout/Google Pay/Google transactions/transactions_1.csv": gpayTransactionsCSV,
			})},
			wantApp:  models.AppGooglePay,
			wantConf: ConfidenceStrong,
		},
		{
			name:     "google pay transactions csv",
			upload:   models.Upload{Name: "transactions_1.csv", Data: []byte(gpayTransactionsCSV)},
			wantApp:  models.AppGooglePay,
			wantConf: ConfidenceStrong,
		},
		{
			name:     "google pay vouchers json with prefix",
			upload:   models.Upload{Name: "Voucher rewards.json", Data: []byte(")]}'\n" + gpayVouchersJSON)},
			wantApp:  models.AppGooglePay,
			wantConf: ConfidenceStrong,
		},
		{
			name:     "google pay activity page",
			upload:   models.Upload{Name: "MyActivity.html", Data: []byte(gpayActivityHTML)},
			wantApp:  models.AppGooglePay,
			wantConf: ConfidenceStrong,
		},
		{
			name:     "bhim structured page",
			upload:   models.Upload{Name: "bhim.html", Data: []byte(bhimStructuredPage)},
			wantApp:  models.AppBHIM,
			wantConf: ConfidenceStrong,
		},
		{
			name:     "bhim legacy table",
			upload:   models.Upload{Name: "history.html", Data: []byte(bhimLegacyPage)},
			wantApp:  models.AppBHIM,
			wantConf: ConfidenceLegacy,
		},
		{
			name:         "encrypted pdf",
			upload:       models.Upload{Name: "statement.pdf", Data: encryptedPDF},
			wantApp:      models.AppPhonePe,
			wantConf:     ConfidenceSniffed,
			wantPassword: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, det, err := reg.Detect(tt.upload)
			require.NoError(t, err)
			assert.Equal(t, tt.wantApp, a.App())
			assert.True(t, det.CanHandle)
			assert.Equal(t, tt.wantConf, det.Confidence)
			assert.Equal(t, tt.wantPassword, det.RequiresPassword)
		})
	}
}

func TestRegistryDetect_Unrecognized(t *testing.T) {
	reg := DefaultRegistry(nil)

	uploads := []models.Upload{
		{Name: "notes.txt", Data: []byte("hello world")},
		{Name: "empty.csv", Data: nil},
		{Name: "other.zip", Data: buildZip(t, map[string]string{"photos/cat.jpg": "meow"})},
		{Name: "report.pdf", Data: pdftest.Build([][]string{{"Quarterly report", "Amount due on the statement date"}}, pdftest.Options{})},
	}
	for _, u := range uploads {
		t.Run(u.Name, func(t *testing.T) {
			_, _, err := reg.Detect(u)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnrecognizedFile))
		})
	}
}

func TestRegistryDetect_CorruptContainer(t *testing.T) {
	reg := DefaultRegistry(nil)

	tests := []struct {
		name    string
		upload  models.Upload
		wantApp models.AppID
	}{
		{"zip", models.Upload{Name: "takeout.zip", Data: corruptZip}, models.AppGooglePay},
		{"pdf", models.Upload{Name: "statement.pdf", Data: []byte("%PDF-1.4\nnot really")}, models.AppPhonePe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, det, err := reg.Detect(tt.upload)
			require.NoError(t, err)
			assert.Equal(t, tt.wantApp, a.App())
			assert.Equal(t, ConfidenceSniffed, det.Confidence)
			assert.False(t, det.RequiresPassword)

			_, err = a.Extract(context.Background(), tt.upload, "")
			assert.ErrorIs(t, err, extractor.ErrContainerUnreadable)
			var extractionErr *extractor.ExtractionError
			assert.ErrorAs(t, err, &extractionErr)
		})
	}
}

type fakeAdapter struct {
	app  models.AppID
	conf float64
}

func (f fakeAdapter) App() models.AppID { return f.app }
func (f fakeAdapter) Name() string      { return string(f.app) }
func (f fakeAdapter) Detect(models.Upload) Detection {
	return match(f.conf)
}
func (f fakeAdapter) Extract(context.Context, models.Upload, string) (models.RawPayloads, error) {
	return models.RawPayloads{}, nil
}
func (f fakeAdapter) Parse(models.RawPayloads) (*ParseResult, error) { return nil, nil }
func (f fakeAdapter) Validate(d *models.ParsedData) bool            { return DefaultValidate(d) }

func TestRegistryDetect_TiesGoToRegistrationOrder(t *testing.T) {
	reg := NewRegistry(
		fakeAdapter{app: "first", conf: 0.9},
		fakeAdapter{app: "second", conf: 0.9},
		fakeAdapter{app: "weak", conf: 0.5},
	)
	a, _, err := reg.Detect(models.Upload{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.AppID("first"), a.App())

	reg = NewRegistry(
		fakeAdapter{app: "weak", conf: 0.5},
		fakeAdapter{app: "strong", conf: 0.95},
	)
	a, _, err = reg.Detect(models.Upload{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.AppID("strong"), a.App())
}

func TestRegistryAdapter(t *testing.T) {
	reg := DefaultRegistry(nil)

	var apps []models.AppID
	for _, a := range reg.Adapters() {
		apps = append(apps, a.App())
	}
	assert.Equal(t, []models.AppID{models.AppGooglePay, models.AppBHIM, models.AppPhonePe}, apps)

	a, ok := reg.Adapter(models.AppBHIM)
	require.True(t, ok)
	assert.Equal(t, "BHIM", a.Name())

	_, ok = reg.Adapter("paytm")
	assert.False(t, ok)
}

func TestDefaultValidate(t *testing.T) {
	assert.False(t, DefaultValidate(nil))
	assert.False(t, DefaultValidate(models.NewParsedData()))

	onlyRewards := models.NewParsedData()
	onlyRewards.CashbackRewards = append(onlyRewards.CashbackRewards, models.CashbackReward{})
	assert.False(t, DefaultValidate(onlyRewards))

	withActivity := models.NewParsedData()
	withActivity.Activities = append(withActivity.Activities, models.ActivityRecord{})
	assert.True(t, DefaultValidate(withActivity))

	withGroup := models.NewParsedData()
	withGroup.GroupExpenses = append(withGroup.GroupExpenses, models.GroupExpense{})
	assert.True(t, DefaultValidate(withGroup))
}
