// Package merge folds the per-app parse results of one session into a
// single time-ordered dataset.
package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/insightdelivered/upi-statement-converter/internal/adapter"
	"github.com/insightdelivered/upi-statement-converter/internal/logger"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// ErrAllAppsFailed is returned when no app in the snapshot produced data.
var ErrAllAppsFailed = errors.New("no app could be parsed")

var errNotMeaningful = errors.New("parse produced no transactions, activities or group expenses")

// AppError records why one app was left out of a merge.
type AppError struct {
	App models.AppID
	Err error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %v", e.App, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Resolver finds the adapter for an app. *adapter.Registry implements it.
type Resolver interface {
	Adapter(app models.AppID) (adapter.Adapter, bool)
}

// Result is the outcome of a merge. Failures lists the apps that were
// excluded; their reasons are also among Warnings.
type Result struct {
	Data     *models.ParsedData
	Warnings []models.Warning
	Failures []*AppError
}

// MergeAll parses every app in snapshot and combines the results. Apps are
// processed in sorted order so the output does not depend on map iteration.
// A failing app is recorded and skipped; an error is returned only when
// every app failed, together with the partial Result holding the warnings.
// snapshot is only read.
func MergeAll(ctx context.Context, resolver Resolver, snapshot map[models.AppID]models.RawPayloads) (*Result, error) {
	log := logger.FromContext(ctx)

	apps := make([]models.AppID, 0, len(snapshot))
	for app := range snapshot {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i] < apps[j] })

	res := &Result{}
	parts := make([]*models.ParsedData, 0, len(apps))

	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, warnings, err := parseApp(resolver, app, snapshot[app])
		res.Warnings = append(res.Warnings, warnings...)
		if err != nil {
			appErr := &AppError{App: app, Err: err}
			res.Failures = append(res.Failures, appErr)
			res.Warnings = append(res.Warnings, models.Warning{App: app, Message: "excluded from merge: " + err.Error()})
			log.Warn().Str("app", string(app)).Err(err).Msg("App excluded from merge")
			continue
		}
		log.Debug().
			Str("app", string(app)).
			Int("transactions", len(data.Transactions)).
			Int("activities", len(data.Activities)).
			Int("warnings", len(warnings)).
			Msg("App parsed")
		parts = append(parts, data)
	}

	for _, w := range res.Warnings {
		log.Debug().Str("app", string(w.App)).Str("role", string(w.Role)).Msg(w.Message)
	}

	res.Data = Combine(parts...)

	if len(apps) > 0 && len(res.Failures) == len(apps) {
		errs := make([]error, len(res.Failures))
		for i, f := range res.Failures {
			errs[i] = f
		}
		return res, fmt.Errorf("%w: %w", ErrAllAppsFailed, errors.Join(errs...))
	}
	return res, nil
}

func parseApp(resolver Resolver, app models.AppID, raw models.RawPayloads) (*models.ParsedData, []models.Warning, error) {
	a, ok := resolver.Adapter(app)
	if !ok {
		return nil, nil, fmt.Errorf("no adapter registered for %q", app)
	}
	pr, err := a.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	if pr == nil || !a.Validate(pr.Data) {
		var warnings []models.Warning
		if pr != nil {
			warnings = pr.Warnings
		}
		return nil, warnings, errNotMeaningful
	}
	return pr.Data, pr.Warnings, nil
}

// Combine appends partial datasets in order and sorts the result. Inputs are
// not modified.
func Combine(parts ...*models.ParsedData) *models.ParsedData {
	out := models.NewParsedData()
	for _, p := range parts {
		out.Append(p)
	}
	Sort(out)
	return out
}

// Sort orders transactions and activities by descending time and group
// expenses by descending creation time. Equal times keep their order.
func Sort(d *models.ParsedData) {
	sort.SliceStable(d.Transactions, func(i, j int) bool {
		return d.Transactions[i].Time.After(d.Transactions[j].Time)
	})
	sort.SliceStable(d.Activities, func(i, j int) bool {
		return d.Activities[i].Time.After(d.Activities[j].Time)
	})
	sort.SliceStable(d.GroupExpenses, func(i, j int) bool {
		return d.GroupExpenses[i].CreationTime.After(d.GroupExpenses[j].CreationTime)
	})
}
