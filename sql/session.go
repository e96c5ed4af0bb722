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

package sql

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/sirupsen/logrus"
)

// Client holds session user information.
type Client struct {
	// User of the session.
	User string
	// Address of the client.
	Address string
}

// Session holds the session data.
type Session interface {
	// ID returns the unique ID of the connection.
	ID() uint32
	// Client returns the user of the session.
	Client() Client
	// CurrentSchema returns the default schema of the session.
	CurrentSchema() string
	// SetCurrentSchema sets the default schema of the session.
	SetCurrentSchema(string)
	// Location returns the session time zone.
	Location() *time.Location
	// SetLocation sets the session time zone.
	SetLocation(*time.Location)
	// GetLogger returns the logger for this session, useful if clients want to log messages with the same format / output
	// as the running server. Clients should instantiate their own global logger with formatting options, and session
	// implementations should return the logger to be used for the running server.
	GetLogger() *logrus.Entry
	// SetLogger sets the logger to use for this session, which will always be an extension of the one returned by
	// GetLogger, extended with session information
	SetLogger(*logrus.Entry)
}

// BaseSession is the basic session type.
type BaseSession struct {
	id       uint32
	client   Client
	token    string
	mu       sync.RWMutex
	schema   string
	location *time.Location
	logger   *logrus.Entry
}

var _ Session = (*BaseSession)(nil)

// Session ID 0 used as invalid SessionID
var autoSessionIDs uint32 = 1

// NewSession creates a new session with data.
func NewSession(client Client, id uint32) *BaseSession {
	return &BaseSession{
		id:       id,
		client:   client,
		token:    uuid.NewString(),
		location: time.UTC,
		schema:   "PUBLIC",
	}
}

// NewBaseSession creates a new empty session.
func NewBaseSession() *BaseSession {
	return NewSession(Client{}, atomic.AddUint32(&autoSessionIDs, 1))
}

// ID implements the Session interface.
func (s *BaseSession) ID() uint32 { return s.id }

// Client implements the Session interface.
func (s *BaseSession) Client() Client { return s.client }

// CurrentSchema implements the Session interface.
func (s *BaseSession) CurrentSchema() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

// SetCurrentSchema implements the Session interface.
func (s *BaseSession) SetCurrentSchema(schema string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = schema
}

// Location implements the Session interface.
func (s *BaseSession) Location() *time.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// SetLocation implements the Session interface.
func (s *BaseSession) SetLocation(loc *time.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
}

// GetLogger implements the Session interface.
func (s *BaseSession) GetLogger() *logrus.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger == nil {
		log := logrus.StandardLogger()
		s.logger = logrus.NewEntry(log).WithFields(logrus.Fields{
			"connectionID": s.id,
			"session":      s.token,
		})
	}
	return s.logger
}

// SetLogger implements the Session interface.
func (s *BaseSession) SetLogger(logger *logrus.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Context of the query execution. A Context belongs to one statement
// execution and must not be shared between executions.
type Context struct {
	context.Context
	Session
	queryTime time.Time
	tracer    opentracing.Tracer
	rootSpan  opentracing.Span
	params    []interface{}
	results   map[interface{}]interface{}
}

// ContextOption is a function to configure the context.
type ContextOption func(*Context)

// WithSession adds the given session to the context.
func WithSession(s Session) ContextOption {
	return func(ctx *Context) {
		ctx.Session = s
	}
}

// WithTracer adds the given tracer to the context.
func WithTracer(t opentracing.Tracer) ContextOption {
	return func(ctx *Context) {
		ctx.tracer = t
	}
}

// WithRootSpan sets the root span of the context.
func WithRootSpan(s opentracing.Span) ContextOption {
	return func(ctx *Context) {
		ctx.rootSpan = s
	}
}

// WithParameters binds the values of the dynamic parameters of the
// statement, in parameter order.
func WithParameters(params ...interface{}) ContextOption {
	return func(ctx *Context) {
		ctx.params = params
	}
}

// WithQueryTime fixes the time used by CURRENT_TIMESTAMP and friends.
func WithQueryTime(t time.Time) ContextOption {
	return func(ctx *Context) {
		ctx.queryTime = t
	}
}

// NewContext creates a new query context. Options can be passed to configure
// the context. If some aspect of the context is not configure, the default
// value will be used.
// By default, the context will have an empty base session and a noop tracer.
func NewContext(
	ctx context.Context,
	opts ...ContextOption,
) *Context {
	c := &Context{
		Context:   ctx,
		Session:   NewBaseSession(),
		queryTime: time.Now(),
		tracer:    opentracing.NoopTracer{},
		results:   make(map[interface{}]interface{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewEmptyContext returns a default context with default values.
func NewEmptyContext() *Context { return NewContext(context.TODO()) }

// QueryTime returns the time.Time when the context associated with this query was created
func (c *Context) QueryTime() time.Time {
	return c.queryTime
}

// Parameter returns the value bound to the dynamic parameter at index i.
func (c *Context) Parameter(i int) (interface{}, error) {
	if i < 0 || i >= len(c.params) {
		return nil, ErrUnresolvedParameter.New(i)
	}
	return c.params[i], nil
}

// CachedResult returns a value stored with CacheResult during this
// execution.
func (c *Context) CachedResult(key interface{}) (interface{}, bool) {
	v, ok := c.results[key]
	return v, ok
}

// CacheResult stores a value for the rest of this execution.
func (c *Context) CacheResult(key, value interface{}) {
	if c.results == nil {
		c.results = make(map[interface{}]interface{})
	}
	c.results[key] = value
}

// CheckAbort returns ErrQueryTimeout if the execution has been cancelled.
func (c *Context) CheckAbort() error {
	select {
	case <-c.Done():
		err := c.Context.Err()
		return ErrQueryTimeout.Wrap(err, err.Error())
	default:
		return nil
	}
}

// Span creates a new tracing span with the given context.
// It will return the span and a new context that should be passed to all
// children of this span.
func (c *Context) Span(
	opName string,
	opts ...opentracing.StartSpanOption,
) (opentracing.Span, *Context) {
	parentSpan := opentracing.SpanFromContext(c.Context)
	if parentSpan != nil {
		opts = append(opts, opentracing.ChildOf(parentSpan.Context()))
	}
	span := c.tracer.StartSpan(opName, opts...)
	ctx := opentracing.ContextWithSpan(c.Context, span)

	return span, c.WithContext(ctx)
}

// WithContext returns a new context with the given underlying context.
func (c *Context) WithContext(ctx context.Context) *Context {
	nc := *c
	nc.Context = ctx
	return &nc
}

// RootSpan returns the root span, if any.
func (c *Context) RootSpan() opentracing.Span {
	return c.rootSpan
}

// NewSpanIter creates a RowIter executed in the given span.
func NewSpanIter(span opentracing.Span, iter RowIter) RowIter {
	// In the default, non traced case, we should not bother with
	// collecting the timings below.
	if (span.Tracer() == opentracing.NoopTracer{}) {
		span.Finish()
		return iter
	}
	return &spanIter{
		span: span,
		iter: iter,
	}
}

type spanIter struct {
	span  opentracing.Span
	iter  RowIter
	count int
	max   time.Duration
	min   time.Duration
	total time.Duration
	done  bool
}

func (i *spanIter) updateTimings(start time.Time) {
	elapsed := time.Since(start)
	if i.max < elapsed {
		i.max = elapsed
	}

	if i.min > elapsed || i.min == 0 {
		i.min = elapsed
	}

	i.total += elapsed
}

func (i *spanIter) Next(ctx *Context) (Row, error) {
	start := time.Now()

	row, err := i.iter.Next(ctx)
	if err == io.EOF {
		i.finish()
		return nil, err
	}

	if err != nil {
		i.finishWithError(err)
		return nil, err
	}

	i.count++
	i.updateTimings(start)
	return row, nil
}

func (i *spanIter) finish() {
	if i.done {
		return
	}

	var avg time.Duration
	if i.count > 0 {
		avg = i.total / time.Duration(i.count)
	}

	i.span.FinishWithOptions(opentracing.FinishOptions{
		LogRecords: []opentracing.LogRecord{
			{
				Timestamp: time.Now(),
				Fields: []log.Field{
					log.Int("rows", i.count),
					log.String("total_time", i.total.String()),
					log.String("max_time", i.max.String()),
					log.String("min_time", i.min.String()),
					log.String("avg_time", avg.String()),
				},
			},
		},
	})
	i.done = true
}

func (i *spanIter) finishWithError(err error) {
	if i.done {
		return
	}

	i.span.FinishWithOptions(opentracing.FinishOptions{
		LogRecords: []opentracing.LogRecord{
			{
				Timestamp: time.Now(),
				Fields:    []log.Field{log.String("error", err.Error())},
			},
		},
	})
	i.done = true
}

func (i *spanIter) Close(ctx *Context) error {
	i.finish()
	return i.iter.Close(ctx)
}
