// Package logger is a thin factory over log/slog: format and level selection,
// static service attributes, and a couple of conventional attr helpers.
//
// Services accept a *slog.Logger and default to logger.Discard(), so log
// output is a wiring decision made once in the binary:
//
//	log := logger.New(logger.WithFormat(logger.FormatText), logger.WithService("tourkit"))
//	log.Info("listening", slog.String("addr", addr))
package logger
