package main

import (
	"reflect"
	"testing"
)

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"kappa=2.5", "gs = 1e-3, 2e-3", "Delta_type=exact"})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Values["kappa"]; !reflect.DeepEqual(got, []float64{2.5}) {
		t.Errorf("kappa = %v", got)
	}
	if got := p.Values["gs"]; !reflect.DeepEqual(got, []float64{1e-3, 2e-3}) {
		t.Errorf("gs = %v", got)
	}
	if got := p.Options["Delta_type"]; got != "exact" {
		t.Errorf("Delta_type = %q", got)
	}
}

func TestParseParamsRejects(t *testing.T) {
	tests := []struct {
		name string
		arg  string
	}{
		{"no equals", "kappa"},
		{"empty name", "=1"},
		{"empty value", "kappa="},
		{"mixed list", "gs=1,two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseParams([]string{tt.arg}); err == nil {
				t.Errorf("parseParams(%q) should fail", tt.arg)
			}
		})
	}
}
