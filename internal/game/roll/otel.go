package roll

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/cory-johannsen/exa/internal/game/roll"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
