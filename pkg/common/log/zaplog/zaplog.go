/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package zaplog provides a zap backend for the module loggers.
//
// Levels are filtered per module by the log package; the zap core is opened at debug level so that every
// line passing that filter is written.
package zaplog

import (
	"fmt"
	"io"
	"os"

	"github.com/hyperledger/aries-framework-go/spi/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Encoding of the log lines.
const (
	EncodingJSON    = "json"
	EncodingConsole = "console"
)

type options struct {
	encoding string
	out      io.Writer
	core     zapcore.Core
}

// Opt configures the provider.
type Opt func(o *options)

// WithEncoding sets the line encoding, json or console.
func WithEncoding(encoding string) Opt {
	return func(o *options) {
		o.encoding = encoding
	}
}

// WithOutput sets where lines are written, stderr by default.
func WithOutput(w io.Writer) Opt {
	return func(o *options) {
		o.out = w
	}
}

// WithCore replaces the zap core.
func WithCore(core zapcore.Core) Opt {
	return func(o *options) {
		o.core = core
	}
}

// Provider implements log.LoggerProvider on top of zap.
type Provider struct {
	base *zap.Logger
}

// New returns a zap logger provider.
func New(opts ...Opt) (*Provider, error) {
	o := &options{encoding: EncodingConsole, out: os.Stderr}

	for _, opt := range opts {
		opt(o)
	}

	core := o.core
	if core == nil {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		var enc zapcore.Encoder

		switch o.encoding {
		case EncodingJSON:
			enc = zapcore.NewJSONEncoder(encCfg)
		case EncodingConsole:
			enc = zapcore.NewConsoleEncoder(encCfg)
		default:
			return nil, fmt.Errorf("unsupported log encoding %q", o.encoding)
		}

		core = zapcore.NewCore(enc, zapcore.AddSync(o.out), zapcore.DebugLevel)
	}

	return &Provider{base: zap.New(core)}, nil
}

// GetLogger returns the logger of module.
func (p *Provider) GetLogger(module string) log.Logger {
	return &logger{s: p.base.Named(module).Sugar()}
}

// Sync flushes buffered lines.
func (p *Provider) Sync() error {
	return p.base.Sync()
}

type logger struct {
	s *zap.SugaredLogger
}

func (l *logger) Panicf(msg string, args ...interface{}) { l.s.Panicf(msg, args...) }
func (l *logger) Fatalf(msg string, args ...interface{}) { l.s.Fatalf(msg, args...) }
func (l *logger) Errorf(msg string, args ...interface{}) { l.s.Errorf(msg, args...) }
func (l *logger) Warnf(msg string, args ...interface{})  { l.s.Warnf(msg, args...) }
func (l *logger) Infof(msg string, args ...interface{})  { l.s.Infof(msg, args...) }
func (l *logger) Debugf(msg string, args ...interface{}) { l.s.Debugf(msg, args...) }
