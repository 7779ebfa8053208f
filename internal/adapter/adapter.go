// Package adapter holds one adapter per supported UPI app. An adapter knows
// how to recognise its app's exports, pull raw payloads out of them and turn
// those payloads into the unified record model.
package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/insightdelivered/upi-statement-converter/internal/classifier"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

var (
	// ErrUnrecognizedFile means no registered adapter claims the upload.
	ErrUnrecognizedFile = errors.New("unrecognized file")
	// ErrNoRecognizableData means the file was opened but none of the
	// expected payloads were in it.
	ErrNoRecognizableData = errors.New("no recognizable data")
)

// Static detection priorities. These rank match kinds; they are not
// probabilities.
const (
	ConfidenceStrong  = 0.95
	ConfidenceLegacy  = 0.9
	ConfidenceSniffed = 0.6
)

// Detection is an adapter's answer to "is this file yours?".
type Detection struct {
	CanHandle        bool    `json:"canHandle"`
	Confidence       float64 `json:"confidence"`
	RequiresPassword bool    `json:"requiresPassword,omitempty"`
}

func noMatch() Detection { return Detection{} }

func match(confidence float64) Detection {
	return Detection{CanHandle: true, Confidence: confidence}
}

// ParseResult is one app's contribution to the unified dataset.
type ParseResult struct {
	Data     *models.ParsedData
	Warnings []models.Warning
}

// Adapter is implemented once per supported app.
type Adapter interface {
	// App returns the identifier stamped on every record the adapter emits.
	App() models.AppID
	// Name returns the human-readable app name.
	Name() string
	// Detect must be side-effect free and must not fail on foreign input.
	Detect(upload models.Upload) Detection
	// Extract pulls raw payloads out of an upload. secret is used for
	// encrypted documents and may be empty.
	Extract(ctx context.Context, upload models.Upload, secret string) (models.RawPayloads, error)
	// Parse turns raw payloads into records. Row problems become warnings.
	Parse(raw models.RawPayloads) (*ParseResult, error)
	// Validate reports whether a parse produced something meaningful.
	Validate(data *models.ParsedData) bool
}

// DefaultValidate requires at least one transaction, activity or group
// expense.
func DefaultValidate(data *models.ParsedData) bool {
	if data == nil {
		return false
	}
	return len(data.Transactions) > 0 || len(data.Activities) > 0 || len(data.GroupExpenses) > 0
}

// Registry is the ordered set of adapters consulted during detection.
// Registration order breaks confidence ties.
type Registry struct {
	adapters []Adapter
}

// NewRegistry registers adapters in the given order.
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// DefaultRegistry registers every supported app. A nil classifier uses the
// built-in keyword table.
func DefaultRegistry(cls *classifier.Classifier) *Registry {
	if cls == nil {
		cls = classifier.Default()
	}
	return NewRegistry(
		NewGooglePay(cls),
		NewBHIM(cls),
		NewPhonePe(cls),
	)
}

// Adapters returns the registered adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Adapter looks up the adapter registered for app.
func (r *Registry) Adapter(app models.AppID) (Adapter, bool) {
	for _, a := range r.adapters {
		if a.App() == app {
			return a, true
		}
	}
	return nil, false
}

// Detect asks every adapter about upload and returns the highest-confidence
// positive match. Equal confidences go to the adapter registered first.
func (r *Registry) Detect(upload models.Upload) (Adapter, Detection, error) {
	var (
		best     Adapter
		bestDet  Detection
		bestConf = -1.0
	)
	for _, a := range r.adapters {
		d := a.Detect(upload)
		if !d.CanHandle {
			continue
		}
		if d.Confidence > bestConf {
			best, bestDet, bestConf = a, d, d.Confidence
		}
	}
	if best == nil {
		return nil, Detection{}, fmt.Errorf("%s: %w", upload.Name, ErrUnrecognizedFile)
	}
	return best, bestDet, nil
}
