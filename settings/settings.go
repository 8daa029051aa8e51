// Package settings holds the per-user tracing configuration and its bounds.
package settings

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ByLCY/vectorizer/vector"
)

// 设置项名称，与机器人命令同名。
const (
	Radius            = "radius"
	SimplifyTolerance = "simplify_tolerance"
	RedThreshold      = "red_threshold"
)

var ErrUnknownSetting = errors.New("settings: 未知设置项")

// Range 是闭区间 [Min, Max]。
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// Bounds 列出每个可调设置项允许的取值范围。
var Bounds = map[string]Range{
	Radius:            {Min: 1, Max: 10},
	SimplifyTolerance: {Min: 1, Max: 10},
	RedThreshold:      {Min: 1, Max: 255},
}

// Names returns the setting names in stable order.
func Names() []string {
	names := make([]string, 0, len(Bounds))
	for n := range Bounds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RangeError reports a value outside its Range.
type RangeError struct {
	Name  string
	Value int
	Range Range
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("settings: %s=%d 超出范围 [%d, %d]", e.Name, e.Value, e.Range.Min, e.Range.Max)
}

// Settings 是单个用户的配置。
type Settings struct {
	Radius            int `json:"radius"`
	SimplifyTolerance int `json:"simplify_tolerance"`
	RedThreshold      int `json:"red_threshold"`
}

// Default returns radius 3, simplify tolerance 5, red threshold 128.
func Default() Settings {
	return Settings{Radius: 3, SimplifyTolerance: 5, RedThreshold: 128}
}

func (s *Settings) field(name string) (*int, error) {
	switch name {
	case Radius:
		return &s.Radius, nil
	case SimplifyTolerance:
		return &s.SimplifyTolerance, nil
	case RedThreshold:
		return &s.RedThreshold, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSetting, name)
}

// Get returns the value of a named setting.
func (s Settings) Get(name string) (int, error) {
	p, err := s.field(name)
	if err != nil {
		return 0, err
	}
	return *p, nil
}

// Set 校验取值后修改指定设置项；失败时不修改。
func (s *Settings) Set(name string, value int) error {
	p, err := s.field(name)
	if err != nil {
		return err
	}
	if r := Bounds[name]; !r.Contains(value) {
		return &RangeError{Name: name, Value: value, Range: r}
	}
	*p = value
	return nil
}

// Validate checks every setting against Bounds.
func (s Settings) Validate() error {
	for _, name := range Names() {
		v, _ := s.Get(name)
		if r := Bounds[name]; !r.Contains(v) {
			return &RangeError{Name: name, Value: v, Range: r}
		}
	}
	return nil
}

// Params converts the settings into tracing parameters.
func (s Settings) Params() vector.Params {
	return vector.Params{
		Radius:       s.Radius,
		Tolerance:    s.SimplifyTolerance,
		RedThreshold: s.RedThreshold,
	}
}
