package services

import (
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ServiceIdentifier interface {
	ID() string
}

// ServiceLogger tags every event with the emitting service. Pool and Route
// derive loggers that also carry the pool or route an event concerns.
type ServiceLogger struct {
	logger zerolog.Logger
}

func NewServiceLogger(svc ServiceIdentifier) *ServiceLogger {
	return newServiceLogger(log.Logger, svc.ID())
}

func newServiceLogger(base zerolog.Logger, id string) *ServiceLogger {
	return &ServiceLogger{
		logger: base.With().Str("service", id).Logger(),
	}
}

func (l *ServiceLogger) Pool(label string, address solana.PublicKey) *ServiceLogger {
	return &ServiceLogger{
		logger: l.logger.With().Str("pool", address.String()).Str("label", label).Logger(),
	}
}

func (l *ServiceLogger) Route(kind string) *ServiceLogger {
	return &ServiceLogger{
		logger: l.logger.With().Str("route", kind).Logger(),
	}
}

func (l *ServiceLogger) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *ServiceLogger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *ServiceLogger) Debug() *zerolog.Event {
	return l.logger.Debug()
}
