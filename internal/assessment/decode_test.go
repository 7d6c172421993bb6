package assessment

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/commentguard/commentguard/internal/models"
)

const nativeDoc = `{
  "spam": {"isSpam": false, "confidence": 0.1},
  "relevance": {
    "onTopic": {"isOnTopic": false, "reasoning": "about something else"},
    "bannedTopics": {"detectedTopics": ["politics"], "quantityOnBannedTopics": 0.4, "reasoning": "election talk"}
  },
  "dogwhistle": {"detected": true, "reasoning": "coded", "terms": ["t1", "t2"]},
  "health": {
    "overallScore": 2,
    "appearsLowEffort": true,
    "logicalFallacies": [{"fallacyName": "strawman", "quotedExample": "so you want", "explanation": "misrepresents", "suggestedRewrite": "I think"}],
    "objectionablePhrases": [{"quotedPhrase": "idiots", "explanation": "insult"}],
    "negativeTonePhrases": [],
    "toxicityScore": 0.35
  }
}`

const megacallDoc = `{
  "spamCheck": {"reasoning": "normal", "isSpam": false, "confidence": 0.05},
  "relevanceCheck": {
    "onTopic": {"reasoning": "about something else", "onTopic": false, "confidence": 0.9},
    "bannedTopics": {"reasoning": "election talk", "bannedTopics": ["politics"], "quantityOnBannedTopics": 0.4, "confidence": 0.8}
  },
  "dogwhistleCheck": {
    "detection": {"reasoning": "coded", "dogwhistlesDetected": true, "confidence": 0.7},
    "details": {"dogwhistleTerms": ["t1", "t2"], "categories": ["c"], "subtletyLevel": 0.6, "harmPotential": 0.5}
  },
  "commentScore": {
    "logicalFallacies": [{"fallacyName": "strawman", "quotedLogicalFallacyExample": "so you want", "explanation": "misrepresents", "suggestedRewrite": "I think"}],
    "objectionablePhrases": [{"quotedObjectionablePhrase": "idiots", "explanation": "insult", "suggestedRewrite": ""}],
    "negativeTonePhrases": [],
    "appearsLowEffort": true,
    "overallScore": 2,
    "toxicityScore": 0.35,
    "toxicityExplanation": "mild insult"
  }
}`

func TestDecode_Native(t *testing.T) {
	a, shape, err := DecodeShape([]byte(nativeDoc), DecodeOptions{})
	if err != nil {
		t.Fatalf("DecodeShape failed: %v", err)
	}
	if shape != ShapeNative {
		t.Errorf("shape = %q, want native", shape)
	}
	if a.Spam == nil || a.Spam.IsSpam {
		t.Errorf("spam = %+v", a.Spam)
	}
	if a.Relevance == nil || a.Relevance.OnTopic.IsOnTopic || a.Relevance.BannedTopics.QuantityOnBannedTopics != 0.4 {
		t.Errorf("relevance = %+v", a.Relevance)
	}
	if a.Health == nil || a.Health.OverallScore != 2 || len(a.Health.LogicalFallacies) != 1 {
		t.Fatalf("health = %+v", a.Health)
	}
	if a.Health.ToxicityScore == nil || *a.Health.ToxicityScore != 0.35 {
		t.Errorf("toxicity = %v", a.Health.ToxicityScore)
	}
}

func TestDecode_MegacallMatchesNative(t *testing.T) {
	mega, shape, err := DecodeShape([]byte(megacallDoc), DecodeOptions{})
	if err != nil {
		t.Fatalf("DecodeShape failed: %v", err)
	}
	if shape != ShapeMegacall {
		t.Errorf("shape = %q, want megacall", shape)
	}
	native, err := Decode([]byte(nativeDoc), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if mega.Relevance.OnTopic.IsOnTopic != native.Relevance.OnTopic.IsOnTopic {
		t.Error("onTopic mismatch")
	}
	if !reflect.DeepEqual(mega.Relevance.BannedTopics.DetectedTopics, native.Relevance.BannedTopics.DetectedTopics) {
		t.Errorf("banned topics = %v", mega.Relevance.BannedTopics.DetectedTopics)
	}
	if !mega.Dogwhistle.Detected || !reflect.DeepEqual(mega.Dogwhistle.Terms, []string{"t1", "t2"}) {
		t.Errorf("dogwhistle = %+v", mega.Dogwhistle)
	}
	if mega.Dogwhistle.HarmPotential != 0.5 {
		t.Errorf("harm potential = %v", mega.Dogwhistle.HarmPotential)
	}
	f := mega.Health.LogicalFallacies[0]
	if f.FallacyName != "strawman" || f.QuotedExample != "so you want" || f.SuggestedRewrite != "I think" {
		t.Errorf("fallacy = %+v", f)
	}
	if mega.Health.ObjectionablePhrases[0].QuotedPhrase != "idiots" {
		t.Errorf("phrase = %+v", mega.Health.ObjectionablePhrases[0])
	}
	if mega.Health.ToxicityExplanation != "mild insult" {
		t.Errorf("toxicity explanation = %q", mega.Health.ToxicityExplanation)
	}
}

func TestDecode_AbsentSectionsStayNil(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"native empty object", `{}`},
		{"native nulls", `{"spam": null, "health": null}`},
		{"megacall nulls", `{"spamCheck": null, "commentScore": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Decode([]byte(tt.doc), DecodeOptions{})
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if a.Spam != nil || a.Relevance != nil || a.Dogwhistle != nil || a.Health != nil {
				t.Errorf("absent sections decoded as present: %+v", a)
			}
		})
	}
}

func TestDecode_MegacallDogwhistleWithoutDetails(t *testing.T) {
	a, err := Decode([]byte(`{"dogwhistleCheck": {"detection": {"dogwhistlesDetected": true, "reasoning": "r"}, "details": null}}`), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !a.Dogwhistle.Detected || a.Dogwhistle.Terms != nil {
		t.Errorf("dogwhistle = %+v", a.Dogwhistle)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"empty", "", ErrEmpty},
		{"whitespace", " \n\t", ErrEmpty},
		{"array", `[1, 2]`, ErrNotObject},
		{"null", `null`, ErrNotObject},
		{"string", `"spam"`, ErrNotObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc), DecodeOptions{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Decode([]byte(`{"spam": {"isSpam": true,}`), DecodeOptions{}); err == nil {
		t.Error("broken JSON without repair should fail")
	}
}

func TestDecode_Repair(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"trailing comma", `{"spam": {"isSpam": true, "confidence": 0.9,},}`},
		{"truncated", `{"spam": {"isSpam": true, "confidence": 0.9`},
		{"single quotes", `{'spam': {'isSpam': true, 'confidence': 0.9}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Decode([]byte(tt.doc), DecodeOptions{Repair: true})
			if err != nil {
				t.Fatalf("Decode with repair failed: %v", err)
			}
			if a.Spam == nil || !a.Spam.IsSpam || a.Spam.Confidence != 0.9 {
				t.Errorf("spam = %+v", a.Spam)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tox := 3.0
	a := &models.Assessment{
		Spam:       &models.SpamResult{Confidence: -1},
		Relevance:  &models.RelevanceResult{BannedTopics: models.BannedTopicsResult{QuantityOnBannedTopics: 1.7}},
		Dogwhistle: &models.DogwhistleResult{HarmPotential: math.NaN()},
		Health:     &models.HealthResult{OverallScore: 9, ToxicityScore: &tox},
	}
	Clamp(a)

	if a.Spam.Confidence != 0 {
		t.Errorf("spam confidence = %v", a.Spam.Confidence)
	}
	if a.Relevance.BannedTopics.QuantityOnBannedTopics != 1 {
		t.Errorf("quantity = %v", a.Relevance.BannedTopics.QuantityOnBannedTopics)
	}
	if a.Dogwhistle.HarmPotential != 0 {
		t.Errorf("harm potential = %v", a.Dogwhistle.HarmPotential)
	}
	if a.Health.OverallScore != 5 {
		t.Errorf("score = %d", a.Health.OverallScore)
	}
	if *a.Health.ToxicityScore != 1 {
		t.Errorf("toxicity = %v", *a.Health.ToxicityScore)
	}
	if tox != 3 {
		t.Error("Clamp mutated the caller's toxicity value")
	}

	low := &models.Assessment{Health: &models.HealthResult{OverallScore: 0}}
	Clamp(low)
	if low.Health.OverallScore != 1 {
		t.Errorf("score = %d, want 1", low.Health.OverallScore)
	}

	Clamp(nil)
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{2.4, 2},
		{2.5, 3},
		{-3, 1},
		{1e300, 5},
		{math.NaN(), 1},
	}
	for _, tt := range tests {
		if got := roundScore(tt.in); got != tt.want {
			t.Errorf("roundScore(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
