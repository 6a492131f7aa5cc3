package steps

import (
	"fmt"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/bucketrun/bucketrun/common/logger"
)

// leveledLoggerWrapper adapts logger.Log to retryablehttp.LeveledLogger so
// FetchStep's retrying client logs through the same structured logger as
// the rest of a deployment.
type leveledLoggerWrapper struct {
	log logger.Log
}

func newLeveledLogger(log logger.Log) retryablehttp.LeveledLogger {
	return &leveledLoggerWrapper{log: log}
}

func (l *leveledLoggerWrapper) Error(msg string, kv ...interface{}) { l.log.Error(l.format(msg, kv)) }
func (l *leveledLoggerWrapper) Info(msg string, kv ...interface{})  { l.log.Info(l.format(msg, kv)) }
func (l *leveledLoggerWrapper) Debug(msg string, kv ...interface{}) { l.log.Debug(l.format(msg, kv)) }
func (l *leveledLoggerWrapper) Warn(msg string, kv ...interface{})  { l.log.Warn(l.format(msg, kv)) }

func (l *leveledLoggerWrapper) format(msg string, kv []interface{}) string {
	return fmt.Sprintf("%s: %v", msg, kv)
}
