// Package log provides a small leveled logging interface shared by the
// pipelines, stores, agents and commands of this module.
//
// Two implementations are provided: DefaultLogger on the standard library
// logger, and GologLogger wrapping github.com/kataras/golog, which is what
// the commands use.
//
//	logger := log.NewGolog(log.LogLevelInfo)
//	logger.Info("stored %d chunks in %s", n, collection)
//
// Libraries accept a nil Logger and fall back to NoOp.
package log
