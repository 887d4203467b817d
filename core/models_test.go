package core

import (
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		wantSame bool
	}{
		{
			name:     "same content produces same fingerprint",
			a:        "Liability clause 4.2",
			b:        "Liability clause 4.2",
			wantSame: true,
		},
		{
			name:     "whitespace differences are ignored",
			a:        "Liability   clause\n4.2 ",
			b:        "Liability clause 4.2",
			wantSame: true,
		},
		{
			name:     "different content differs",
			a:        "Liability clause 4.2",
			b:        "Liability clause 4.3",
			wantSame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			same := Fingerprint(tt.a) == Fingerprint(tt.b)
			if same != tt.wantSame {
				t.Errorf("Fingerprint(%q) == Fingerprint(%q) is %v, want %v", tt.a, tt.b, same, tt.wantSame)
			}
		})
	}
}

func TestShipmentDisplayRef(t *testing.T) {
	s := &Shipment{ID: 999001, ExternalRef: "LL-999001"}
	if got := s.DisplayRef(); got != "LL-999001" {
		t.Errorf("DisplayRef() = %q, want LL-999001", got)
	}

	s.ExternalRef = ""
	if got := s.DisplayRef(); got != "999001" {
		t.Errorf("DisplayRef() = %q, want 999001", got)
	}
}

func TestLiveDataJSONMergesShipmentAndEvent(t *testing.T) {
	delay := 52.0
	ld := LiveData{
		Shipment: Shipment{ID: 999001, Status: "Customs Hold", DelayHours: &delay},
		LatestEvent: &TrackingEvent{
			ID:          7,
			ShipmentID:  999001,
			Code:        "CZ01",
			Description: "Shipment held in customs inspection at FRA",
		},
	}

	data, err := json.Marshal(ld)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{`"current_status":"Customs Hold"`, `"delay_duration_hours":52`, `"latest_event":{`, `"event_code":"CZ01"`} {
		if !strings.Contains(out, want) {
			t.Errorf("marshaled LiveData %s missing %s", out, want)
		}
	}
}

func TestReasoningAnswerJSONOmitsMissingLiveData(t *testing.T) {
	ans := ReasoningAnswer{Answer: "ok", Language: LocaleEnglish, Citations: []SearchHit{}}
	data, err := json.Marshal(ans)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(data)
	if strings.Contains(out, "liveData") {
		t.Errorf("expected liveData to be omitted, got %s", out)
	}
	if !strings.Contains(out, `"citations":[]`) {
		t.Errorf("expected empty citations array, got %s", out)
	}
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in      string
		want    Locale
		wantErr bool
	}{
		{in: "en", want: LocaleEnglish},
		{in: " HI ", want: LocaleHindi},
		{in: "zh-CN", want: LocaleChinese},
		{in: "es_MX", want: LocaleSpanish},
		{in: "fr", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocale(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLocale(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocale(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLocale(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLocaleResolve(t *testing.T) {
	if got := Locale("").Resolve(); got != DefaultLocale {
		t.Errorf("Resolve() = %q, want %q", got, DefaultLocale)
	}
	if got := Locale("xx").Resolve(); got != DefaultLocale {
		t.Errorf("Resolve() = %q, want %q", got, DefaultLocale)
	}
	if got := LocaleSpanish.Resolve(); got != LocaleSpanish {
		t.Errorf("Resolve() = %q, want %q", got, LocaleSpanish)
	}
}
