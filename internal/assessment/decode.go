// Package assessment decodes provider responses into models.Assessment
package assessment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/commentguard/commentguard/internal/models"
	"github.com/kaptinlin/jsonrepair"
)

var (
	// ErrEmpty is returned for blank input
	ErrEmpty = errors.New("empty assessment")
	// ErrNotObject is returned when the document is not a JSON object
	ErrNotObject = errors.New("assessment must be a JSON object")
)

// Shape names the wire layout of an assessment document
type Shape string

const (
	ShapeNative   Shape = "native"
	ShapeMegacall Shape = "megacall"
)

// megacall top-level keys
var megacallKeys = []string{"spamCheck", "relevanceCheck", "dogwhistleCheck", "commentScore"}

// DecodeOptions controls lenient decoding
type DecodeOptions struct {
	// Repair runs syntactically broken JSON through jsonrepair before
	// giving up.
	Repair bool
}

// Decode parses a native or megacall assessment. Numbers outside their
// documented ranges are clamped.
func Decode(data []byte, opts DecodeOptions) (*models.Assessment, error) {
	a, _, err := DecodeShape(data, opts)
	return a, err
}

// DecodeShape is Decode that also reports which layout was detected
func DecodeShape(data []byte, opts DecodeOptions) (*models.Assessment, Shape, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}

	var top map[string]json.RawMessage
	err := json.Unmarshal(data, &top)
	if err != nil && opts.Repair {
		repaired, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return nil, "", fmt.Errorf("failed to repair assessment JSON: %w", rerr)
		}
		data = []byte(repaired)
		err = json.Unmarshal(data, &top)
	}
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, "", ErrNotObject
		}
		return nil, "", fmt.Errorf("failed to parse assessment JSON: %w", err)
	}
	if top == nil {
		return nil, "", ErrNotObject
	}

	shape := detectShape(top)
	var a *models.Assessment
	switch shape {
	case ShapeMegacall:
		a, err = decodeMegacall(data)
	default:
		a, err = decodeNative(data)
	}
	if err != nil {
		return nil, shape, err
	}

	Clamp(a)
	return a, shape, nil
}

func detectShape(top map[string]json.RawMessage) Shape {
	for _, k := range megacallKeys {
		if _, ok := top[k]; ok {
			return ShapeMegacall
		}
	}
	return ShapeNative
}

func decodeNative(data []byte) (*models.Assessment, error) {
	var a models.Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode assessment: %w", err)
	}
	return &a, nil
}

// Clamp forces numeric fields into range: scores to 1..5, fractions to 0..1
func Clamp(a *models.Assessment) {
	if a == nil {
		return
	}
	if a.Spam != nil {
		a.Spam.Confidence = clampFraction(a.Spam.Confidence)
	}
	if a.Relevance != nil {
		a.Relevance.OnTopic.Confidence = clampFraction(a.Relevance.OnTopic.Confidence)
		a.Relevance.BannedTopics.QuantityOnBannedTopics = clampFraction(a.Relevance.BannedTopics.QuantityOnBannedTopics)
		a.Relevance.BannedTopics.Confidence = clampFraction(a.Relevance.BannedTopics.Confidence)
	}
	if a.Dogwhistle != nil {
		a.Dogwhistle.Confidence = clampFraction(a.Dogwhistle.Confidence)
		a.Dogwhistle.SubtletyLevel = clampFraction(a.Dogwhistle.SubtletyLevel)
		a.Dogwhistle.HarmPotential = clampFraction(a.Dogwhistle.HarmPotential)
	}
	if a.Health != nil {
		switch {
		case a.Health.OverallScore < 1:
			a.Health.OverallScore = 1
		case a.Health.OverallScore > 5:
			a.Health.OverallScore = 5
		}
		if a.Health.ToxicityScore != nil {
			v := clampFraction(*a.Health.ToxicityScore)
			a.Health.ToxicityScore = &v
		}
	}
}

// roundScore rounds a float score and clamps it to 1..5
func roundScore(f float64) int {
	if math.IsNaN(f) {
		return 1
	}
	return int(math.Max(1, math.Min(5, math.Round(f))))
}

func clampFraction(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}
