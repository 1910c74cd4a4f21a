package layout

import (
	"testing"

	"github.com/matzehuels/branchview/pkg/errors"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"", TB, false},
		{"TB", TB, false},
		{"tb", TB, false},
		{" lr ", LR, false},
		{"LR", LR, false},
		{"RL", "", true},
		{"down", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDirection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidDirection) {
			t.Errorf("ParseDirection(%q) code = %v", tt.in, errors.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("ParseDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	bad := []func(*Config){
		func(c *Config) { c.NodeWidth = 0 },
		func(c *Config) { c.NodeHeight = -1 },
		func(c *Config) { c.RankGap = -5 },
		func(c *Config) { c.MarginX = -1 },
		func(c *Config) { c.OrderingPasses = -1 },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		if err := c.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("case %d: Validate() = %v, want INVALID_CONFIG", i, err)
		}
	}
}
