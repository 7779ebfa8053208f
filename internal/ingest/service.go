// Package ingest ties detection, extraction, the session store, merging and
// filtering together for the CLI and the HTTP API.
package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/upi-statement-converter/internal/adapter"
	"github.com/insightdelivered/upi-statement-converter/internal/filter"
	"github.com/insightdelivered/upi-statement-converter/internal/logger"
	"github.com/insightdelivered/upi-statement-converter/internal/merge"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
	"github.com/insightdelivered/upi-statement-converter/internal/session"
)

// Service runs uploads through the pipeline.
type Service struct {
	registry *adapter.Registry
	sessions *session.Store
	usdToINR decimal.Decimal
}

// NewService builds a service. A nil store gets a fresh one; a zero rate
// falls back to models.DefaultUSDToINR.
func NewService(registry *adapter.Registry, sessions *session.Store, usdToINR decimal.Decimal) *Service {
	if sessions == nil {
		sessions = session.NewStore()
	}
	if usdToINR.IsZero() {
		usdToINR = models.DefaultUSDToINR
	}
	return &Service{registry: registry, sessions: sessions, usdToINR: usdToINR}
}

// Sessions exposes the store for session lifecycle calls.
func (s *Service) Sessions() *session.Store {
	return s.sessions
}

// IngestResult reports what was learned from one upload.
type IngestResult struct {
	File      string               `json:"file"`
	App       models.AppID         `json:"app"`
	AppName   string               `json:"appName"`
	Detection adapter.Detection    `json:"detection"`
	Roles     []models.Role        `json:"roles"`
	Format    models.PayloadFormat `json:"format,omitempty"`
}

// Ingest detects the app behind upload, extracts its payloads and stores
// them in the session. Nothing is stored when any step fails.
func (s *Service) Ingest(ctx context.Context, sessionID string, upload models.Upload, secret string) (*IngestResult, error) {
	log := logger.FromContext(ctx)

	if !s.sessions.Exists(sessionID) {
		return nil, session.ErrNotFound
	}

	a, det, err := s.registry.Detect(upload)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("file", upload.Name).
		Str("app", string(a.App())).
		Float64("confidence", det.Confidence).
		Msg("Detected export")

	raw, err := a.Extract(ctx, upload, secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name(), err)
	}
	if err := s.sessions.Put(sessionID, a.App(), raw); err != nil {
		return nil, err
	}

	log.Info().
		Str("file", upload.Name).
		Str("app", string(a.App())).
		Int("roles", len(raw.Present())).
		Msg("Stored payloads")

	return &IngestResult{
		File:      upload.Name,
		App:       a.App(),
		AppName:   a.Name(),
		Detection: det,
		Roles:     raw.Present(),
		Format:    raw.Format,
	}, nil
}

// BuildResult is a merged and filtered dataset with its diagnostics.
type BuildResult struct {
	Data     *models.ParsedData `json:"data"`
	Warnings []models.Warning   `json:"warnings"`
	Failed   []models.AppID     `json:"failedApps,omitempty"`
	Summary  Summary            `json:"summary"`
}

// Build merges everything stored in the session and applies q.
func (s *Service) Build(ctx context.Context, sessionID string, q filter.Query) (*BuildResult, error) {
	snapshot, err := s.sessions.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, snapshot, q)
}

// Convert runs uploads through a throwaway session. It stops at the first
// upload that cannot be ingested.
func (s *Service) Convert(ctx context.Context, uploads []models.Upload, secret string, q filter.Query) (*BuildResult, []*IngestResult, error) {
	id := s.sessions.Create()
	defer func() { _ = s.sessions.Delete(id) }()

	ingested := make([]*IngestResult, 0, len(uploads))
	for _, u := range uploads {
		r, err := s.Ingest(ctx, id, u, secret)
		if err != nil {
			return nil, ingested, fmt.Errorf("%s: %w", u.Name, err)
		}
		ingested = append(ingested, r)
	}

	res, err := s.Build(ctx, id, q)
	return res, ingested, err
}

func (s *Service) build(ctx context.Context, snapshot map[models.AppID]models.RawPayloads, q filter.Query) (*BuildResult, error) {
	merged, err := merge.MergeAll(ctx, s.registry, snapshot)
	if err != nil {
		return nil, err
	}

	data, err := filter.Apply(merged.Data, q)
	if err != nil {
		return nil, err
	}

	out := &BuildResult{
		Data:     data,
		Warnings: merged.Warnings,
		Summary:  Summarize(data, s.usdToINR),
	}
	if out.Warnings == nil {
		out.Warnings = []models.Warning{}
	}
	for _, f := range merged.Failures {
		out.Failed = append(out.Failed, f.App)
	}
	return out, nil
}

// CategoryTotal is the spend in one category.
type CategoryTotal struct {
	Category models.Category `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// Summary holds headline numbers for a dataset. Amounts are in rupees.
type Summary struct {
	Transactions  int             `json:"transactions"`
	Activities    int             `json:"activities"`
	GroupExpenses int             `json:"groupExpenses"`
	Cashback      int             `json:"cashback"`
	Vouchers      int             `json:"vouchers"`
	TotalSpend    decimal.Decimal `json:"totalSpend"`
	TotalCashback decimal.Decimal `json:"totalCashback"`
	ByCategory    []CategoryTotal `json:"byCategory"`
}

// Summarize totals transaction spend by category, largest first. Activity
// entries often repeat payments already listed as transactions, so they are
// counted but not summed.
func Summarize(data *models.ParsedData, usdToINR decimal.Decimal) Summary {
	sum := Summary{
		TotalSpend:    decimal.Zero,
		TotalCashback: decimal.Zero,
		ByCategory:    []CategoryTotal{},
	}
	if data == nil {
		return sum
	}
	sum.Transactions = len(data.Transactions)
	sum.Activities = len(data.Activities)
	sum.GroupExpenses = len(data.GroupExpenses)
	sum.Cashback = len(data.CashbackRewards)
	sum.Vouchers = len(data.VoucherRewards)

	totals := make(map[models.Category]*CategoryTotal)
	for _, t := range data.Transactions {
		v := t.Amount.InINR(usdToINR)
		sum.TotalSpend = sum.TotalSpend.Add(v)

		cat := t.Category
		if cat == "" {
			cat = models.CategoryOthers
		}
		ct, ok := totals[cat]
		if !ok {
			ct = &CategoryTotal{Category: cat, Amount: decimal.Zero}
			totals[cat] = ct
		}
		ct.Amount = ct.Amount.Add(v)
		ct.Count++
	}
	for _, cb := range data.CashbackRewards {
		sum.TotalCashback = sum.TotalCashback.Add(models.Currency{Value: cb.Amount, Currency: cb.Currency}.InINR(usdToINR))
	}

	for _, ct := range totals {
		sum.ByCategory = append(sum.ByCategory, *ct)
	}
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		a, b := sum.ByCategory[i], sum.ByCategory[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.Category < b.Category
	})
	return sum
}
