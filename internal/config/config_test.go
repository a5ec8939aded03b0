package config

import (
	"testing"
	"time"
)

func TestParseInt64CSV(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []int64
		wantErr bool
	}{
		{name: "single", in: "123", want: []int64{123}},
		{name: "multiple", in: "1,2,3", want: []int64{1, 2, 3}},
		{name: "spaces", in: " 1 , 2 ", want: []int64{1, 2}},
		{name: "negative", in: "-1001399056118", want: []int64{-1001399056118}},
		{name: "empty", in: "", want: nil},
		{name: "garbage", in: "1,abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInt64CSV(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("length mismatch: got %v want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("value mismatch: got %v want %v", got, tt.want)
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		BotMaxInflight:          64,
		BotUpdateTimeoutSeconds: 60,
		DBMaxConns:              25,
		DBMinConns:              5,
		TopLimit:                15,
		KarmaChangeLimit:        5,
		KarmaChangeWindow:       time.Hour,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := valid
	bad.TopLimit = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero top limit")
	}

	bad = valid
	bad.DBMinConns = 30
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for min conns above max")
	}
}
