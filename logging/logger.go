// Copyright 2026 The Switchback Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"maps"

	"github.com/sirupsen/logrus"
)

// Logger instances provide custom logging.
type Logger interface {

	// Log with level ERROR
	Error(...any)

	// Log formatted messages with level ERROR
	Errorf(string, ...any)

	// Log with level WARN
	Warn(...any)

	// Log formatted messages with level WARN
	Warnf(string, ...any)

	// Log with level INFO
	Info(...any)

	// Log formatted messages with level INFO
	Infof(string, ...any)

	// Log with level DEBUG
	Debug(...any)

	// Log formatted messages with level DEBUG
	Debugf(string, ...any)
}

// DefaultLog provides a default implementation of the Logger
// interface, writing to the standard logrus logger.
type DefaultLog struct {
	fields logrus.Fields
}

var _ Logger = (*DefaultLog)(nil)

func (dl *DefaultLog) entry() *logrus.Entry {
	return logrus.WithFields(dl.fields)
}

func (dl *DefaultLog) Error(a ...any)            { dl.entry().Error(a...) }
func (dl *DefaultLog) Errorf(f string, a ...any) { dl.entry().Errorf(f, a...) }
func (dl *DefaultLog) Warn(a ...any)             { dl.entry().Warn(a...) }
func (dl *DefaultLog) Warnf(f string, a ...any)  { dl.entry().Warnf(f, a...) }
func (dl *DefaultLog) Info(a ...any)             { dl.entry().Info(a...) }
func (dl *DefaultLog) Infof(f string, a ...any)  { dl.entry().Infof(f, a...) }
func (dl *DefaultLog) Debug(a ...any)            { dl.entry().Debug(a...) }
func (dl *DefaultLog) Debugf(f string, a ...any) { dl.entry().Debugf(f, a...) }

// WithFields returns a logger that adds the fields to every entry.
func (dl *DefaultLog) WithFields(fields map[string]any) *DefaultLog {
	f := make(logrus.Fields, len(dl.fields)+len(fields))
	maps.Copy(f, dl.fields)
	maps.Copy(f, fields)
	return &DefaultLog{fields: f}
}

// New creates a logger writing to the standard logrus logger. The
// component field is added to every entry when not empty.
func New(component string) *DefaultLog {
	dl := &DefaultLog{fields: logrus.Fields{}}
	if component != "" {
		dl.fields["component"] = component
	}

	return dl
}
