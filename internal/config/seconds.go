package config

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Seconds is a time in seconds. In YAML it is written either as a Go
// duration string ("2us", "1.5ms") or as a plain number of seconds.
type Seconds float64

func (s *Seconds) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("config.Seconds: expected a scalar at line %d", value.Line)
	}
	switch value.ShortTag() {
	case "!!int", "!!float":
		v, err := strconv.ParseFloat(value.Value, 64)
		if err != nil {
			return fmt.Errorf("config.Seconds: failed to parse %q: %w", value.Value, err)
		}
		*s = Seconds(v)
		return nil
	}
	d, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config.Seconds: failed to parse %q: %w", value.Value, err)
	}
	*s = Seconds(d.Seconds())
	return nil
}

func (s Seconds) MarshalYAML() (interface{}, error) {
	return s.Duration().String(), nil
}

// Duration converts to a time.Duration rounded to the nanosecond.
func (s Seconds) Duration() time.Duration {
	return time.Duration(math.Round(float64(s) * float64(time.Second)))
}

// Validate rejects negative and non-finite values.
func (s Seconds) Validate() error {
	v := float64(s)
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("must be a finite non-negative time: %g given", v)
	}
	return nil
}
