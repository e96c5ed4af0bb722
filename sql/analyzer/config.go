// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analyzer

import (
	"fmt"
	"io"

	"gopkg.in/src-d/go-errors.v1"
	"gopkg.in/yaml.v2"
)

// ErrInvalidCostModel is returned when a cost model constant is out of its
// domain.
var ErrInvalidCostModel = errors.NewKind("invalid cost model: %s")

// CostModel holds the constants used to estimate the cost of an access
// path.
type CostModel struct {
	// MinSelectivity is the smallest cost of a full scan, so that tiny
	// tables still prefer an index.
	MinSelectivity float64 `yaml:"min_selectivity"`
	// EqualitySelectivity is the fraction of rows matching an equality on
	// one index column, for indexes without statistics.
	EqualitySelectivity float64 `yaml:"equality_selectivity"`
	// RangeSelectivity is the fraction of rows between range bounds.
	RangeSelectivity float64 `yaml:"range_selectivity"`
	// NotNullSelectivity is the fraction of rows with a non NULL column.
	NotNullSelectivity float64 `yaml:"not_null_selectivity"`
	// UniqueMatchRows is the number of rows read through a unique index
	// with all its columns bound by equalities.
	UniqueMatchRows float64 `yaml:"unique_match_rows"`
	// QuantifiedPenalty multiplies the cost of a path for each quantified,
	// MATCH, IN or OVERLAPS predicate checked on its rows.
	QuantifiedPenalty float64 `yaml:"quantified_penalty"`
}

// DefaultCostModel returns the built-in constants.
func DefaultCostModel() CostModel {
	return CostModel{
		MinSelectivity:      16,
		EqualitySelectivity: 0.1,
		RangeSelectivity:    0.3,
		NotNullSelectivity:  0.9,
		UniqueMatchRows:     1,
		QuantifiedPenalty:   1000,
	}
}

// Validate checks the constants are in their domain.
func (c CostModel) Validate() error {
	fractions := []struct {
		name  string
		value float64
	}{
		{"equality_selectivity", c.EqualitySelectivity},
		{"range_selectivity", c.RangeSelectivity},
		{"not_null_selectivity", c.NotNullSelectivity},
	}
	for _, f := range fractions {
		if f.value <= 0 || f.value > 1 {
			return ErrInvalidCostModel.New(fmt.Sprintf("%s must be in (0, 1], got %v", f.name, f.value))
		}
	}
	if c.MinSelectivity < 0 {
		return ErrInvalidCostModel.New(fmt.Sprintf("min_selectivity must not be negative, got %v", c.MinSelectivity))
	}
	if c.UniqueMatchRows <= 0 {
		return ErrInvalidCostModel.New(fmt.Sprintf("unique_match_rows must be positive, got %v", c.UniqueMatchRows))
	}
	if c.QuantifiedPenalty < 1 {
		return ErrInvalidCostModel.New(fmt.Sprintf("quantified_penalty must be at least 1, got %v", c.QuantifiedPenalty))
	}
	return nil
}

// Config is the analyzer configuration file.
type Config struct {
	Debug   bool      `yaml:"debug"`
	Verbose bool      `yaml:"verbose"`
	Costs   CostModel `yaml:"costs"`
}

// LoadCostModel reads cost model constants from YAML. Constants missing
// from the document keep their default value.
func LoadCostModel(r io.Reader) (CostModel, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return CostModel{}, err
	}
	c := DefaultCostModel()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return CostModel{}, ErrInvalidCostModel.Wrap(err, err.Error())
	}
	if err := c.Validate(); err != nil {
		return CostModel{}, err
	}
	return c, nil
}

// LoadConfig reads an analyzer configuration from YAML.
func LoadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Costs: DefaultCostModel()}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, ErrInvalidCostModel.Wrap(err, err.Error())
	}
	if err := cfg.Costs.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
