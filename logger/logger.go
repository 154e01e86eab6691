/*
 * Copyright 2023 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/nrednav/cuid2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	MethodFile   = "file"
	MethodVector = "vector"
)

var (
	logger      *zap.Logger
	atomicLevel = zap.NewAtomicLevel()

	generate, _ = cuid2.Init(
		cuid2.WithLength(32),
	)
)

type LoggerConfig struct {
	LogLevel       string
	LogMethod      string
	LogFile        LogFile
	VectorEndpoint string
	VerifyTLS      bool
	// Output receives the primary JSON stream, stderr when nil. stdout is
	// reserved for the inventory report.
	Output io.Writer
}

type LogFile struct {
	Path       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

type lumberjackSink struct {
	*lumberjack.Logger
}

func (lumberjackSink) Sync() error {
	return nil
}

// NewRunID returns an id attached to every log line of one invocation
func NewRunID() string {
	return generate()
}

// Initialize builds the global logger. Callers use zap.L() afterwards.
func Initialize(svc, hostname, runID string, config LoggerConfig) error {
	atomicLevel.SetLevel(parseLevel(config.LogLevel))

	var out io.Writer = os.Stderr
	if config.Output != nil {
		out = config.Output
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(ProdEncoderConf()),
		zapcore.Lock(zapcore.AddSync(out)),
		atomicLevel,
	)

	switch config.LogMethod {
	case "":
	case MethodFile:
		if config.LogFile.Path == "" {
			return fmt.Errorf("log file path is required when log method is %s", MethodFile)
		}
		ljCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(ProdEncoderConf()),
			lumberjackSink{&lumberjack.Logger{
				Filename:   filepath.Join(config.LogFile.Path, svc+".log"),
				MaxSize:    config.LogFile.MaxSize, // megabytes
				MaxBackups: config.LogFile.MaxBackups,
				MaxAge:     config.LogFile.MaxAge, // days
			}},
			atomicLevel)
		core = zapcore.NewTee(core, ljCore)
	case MethodVector:
		u, err := url.Parse(config.VectorEndpoint)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid vector endpoint %q", config.VectorEndpoint)
		}
		vectorCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(ProdEncoderConf()),
			newVectorSink(u, config.VerifyTLS),
			atomicLevel)
		core = zapcore.NewTee(core, vectorCore)
	default:
		return fmt.Errorf("unknown log method %q", config.LogMethod)
	}

	logger = zap.New(core, zap.AddCaller(),
		zap.Fields(
			zap.String("app", svc),
			zap.String("host", hostname),
			zap.String("run_id", runID),
		))

	zap.ReplaceGlobals(logger)
	return nil
}

func Flush() {
	if logger != nil {
		logger.Sync()
	}
}

// IsDebug reports whether debug output is enabled
func IsDebug() bool {
	return atomicLevel.Enabled(zap.DebugLevel)
}

func parseLevel(l string) zapcore.Level {
	switch l {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func ProdEncoderConf() zapcore.EncoderConfig {
	encConf := zap.NewProductionEncoderConfig()
	encConf.EncodeTime = zapcore.RFC3339TimeEncoder

	return encConf
}
