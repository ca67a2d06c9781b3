package timeparsing

import (
	"testing"
	"time"
)

func TestParseCompactDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{
			name:  "6h is 6 hours",
			input: "6h",
			want:  6 * time.Hour,
		},
		{
			name:  "30d is 30 days",
			input: "30d",
			want:  30 * 24 * time.Hour,
		},
		{
			name:  "2w is 2 weeks",
			input: "2w",
			want:  2 * 7 * 24 * time.Hour,
		},
		{
			name:    "months rejected",
			input:   "3m",
			wantErr: true,
		},
		{
			name:    "years rejected",
			input:   "1y",
			wantErr: true,
		},
		{
			name:    "sign rejected",
			input:   "+6h",
			wantErr: true,
		},
		{
			name:    "bare number rejected",
			input:   "30",
			wantErr: true,
		},
		{
			name:    "empty rejected",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCompactDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCompactDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseCompactDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsCompactDuration(t *testing.T) {
	if !IsCompactDuration("30d") {
		t.Error("30d should be a compact duration")
	}
	if IsCompactDuration("soon") {
		t.Error("soon should not be a compact duration")
	}
}
