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
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/expression"
	"github.com/dolthub/go-predicate-core/sql/plan"
)

const debugAnalyzerKey = "DEBUG_ANALYZER"

// ErrInAnalysis is thrown for generic analyzer errors
var ErrInAnalysis = errors.NewKind("error in analysis: %s")

// Builder provides an easy way to generate Analyzer with custom options.
type Builder struct {
	debug   bool
	verbose bool
	costs   CostModel
}

// NewBuilder creates a new Builder with the default cost model.
func NewBuilder() *Builder {
	return &Builder{costs: DefaultCostModel()}
}

// WithDebug activates debug on the Analyzer.
func (ab *Builder) WithDebug() *Builder {
	ab.debug = true

	return ab
}

// WithVerbose makes the Analyzer print the access paths it chooses.
func (ab *Builder) WithVerbose() *Builder {
	ab.verbose = true
	return ab
}

// WithCostModel replaces the cost model constants.
func (ab *Builder) WithCostModel(c CostModel) *Builder {
	ab.costs = c
	return ab
}

// Build creates a new Analyzer. Debug is also enabled by the DEBUG_ANALYZER
// environment variable.
func (ab *Builder) Build() *Analyzer {
	_, debug := os.LookupEnv(debugAnalyzerKey)
	return &Analyzer{
		Debug:    debug || ab.debug,
		Verbose:  ab.verbose,
		Costs:    ab.costs,
		debugCtx: make([]string, 0),
	}
}

// Analyzer chooses the access path of every range variable of a statement.
type Analyzer struct {
	// Whether to log various debugging messages
	Debug bool
	// Whether to output the access paths of each range
	Verbose bool
	// Costs holds the constants of the cost model.
	Costs    CostModel
	debugCtx []string
}

// NewDefault creates a default Analyzer instance.
func NewDefault() *Analyzer {
	return NewBuilder().Build()
}

// NewFromConfig creates an Analyzer from a loaded configuration.
func NewFromConfig(cfg Config) *Analyzer {
	b := NewBuilder().WithCostModel(cfg.Costs)
	if cfg.Debug {
		b = b.WithDebug()
	}
	if cfg.Verbose {
		b = b.WithVerbose()
	}
	return b.Build()
}

// Log prints an INFO message to stdout with the given message and args
// if the analyzer is in debug mode.
func (a *Analyzer) Log(msg string, args ...interface{}) {
	if a != nil && a.Debug {
		if len(a.debugCtx) > 0 {
			ctx := strings.Join(a.debugCtx, "/")
			logrus.Infof("%s: "+msg, append([]interface{}{ctx}, args...)...)
		} else {
			logrus.Infof(msg, args...)
		}
	}
}

// LogRange prints the access paths of a range if Verbose logging is
// enabled.
func (a *Analyzer) LogRange(t *expression.Tree, rv *plan.RangeVariable) {
	if a != nil && rv != nil && a.Verbose {
		if len(a.debugCtx) > 0 {
			ctx := strings.Join(a.debugCtx, "/")
			fmt.Printf("%s: %s", ctx, rv.Describe(t))
		} else {
			fmt.Printf("%s", rv.Describe(t))
		}
	}
}

// PushDebugContext pushes the given context string onto the context stack, to use when logging debug messages.
func (a *Analyzer) PushDebugContext(msg string) {
	if a != nil {
		a.debugCtx = append(a.debugCtx, msg)
	}
}

// PopDebugContext pops a context message off the context stack.
func (a *Analyzer) PopDebugContext() {
	if a != nil && len(a.debugCtx) > 0 {
		a.debugCtx = a.debugCtx[:len(a.debugCtx)-1]
	}
}

// Analyze resolves the join and WHERE conditions of a statement and
// assigns them to its range variables.
func (a *Analyzer) Analyze(ctx *sql.Context, t *expression.Tree, ranges []*plan.RangeVariable, where expression.NodeID) error {
	span, ctx := ctx.Span("analyze")
	defer span.Finish()

	var ids []expression.NodeID
	for _, rv := range ranges {
		if rv.On != expression.NoNode {
			ids = append(ids, rv.On)
		}
	}
	if where != expression.NoNode {
		ids = append(ids, where)
	}
	if err := expression.ResolveTypes(ctx, t, ids...); err != nil {
		return err
	}
	return a.AssignConditions(ctx, t, ranges, where)
}
