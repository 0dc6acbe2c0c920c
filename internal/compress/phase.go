package compress

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// Phase is one state of the per-request orchestration machine.
type Phase string

const (
	// PhaseValidating checks the request before any file or codec work.
	PhaseValidating Phase = "VALIDATING"
	// PhaseProbing inspects the source file (stat, decode, stream scan).
	PhaseProbing Phase = "PROBING"
	// PhaseTransforming computes and applies in-memory transforms.
	PhaseTransforming Phase = "TRANSFORMING"
	// PhaseEncoding writes the compressed image artifact.
	PhaseEncoding Phase = "ENCODING"
	// PhaseTransferring moves tracks into the destination container.
	PhaseTransferring Phase = "TRANSFERRING"
	// PhaseComplete is the successful terminal state.
	PhaseComplete Phase = "COMPLETE"
	// PhaseFailed is the failing terminal state.
	PhaseFailed Phase = "FAILED"
)

// ErrInvalidTransition is returned when an invalid phase transition is
// attempted. Reaching it indicates an orchestrator bug, not a bad request.
var ErrInvalidTransition = errors.New("compress: invalid phase transition")

// validTransitions defines which phase transitions are allowed.
var validTransitions = map[Phase][]Phase{
	PhaseValidating:   {PhaseProbing, PhaseFailed},
	PhaseTransforming: {PhaseEncoding, PhaseTransferring, PhaseFailed},
	PhaseProbing:      {PhaseTransforming, PhaseFailed},
	PhaseEncoding:     {PhaseComplete, PhaseFailed},
	PhaseTransferring: {PhaseComplete, PhaseFailed},
	PhaseComplete:     {},
	PhaseFailed:       {},
}

func canTransition(from, to Phase) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, p := range allowed {
		if p == to {
			return true
		}
	}
	return false
}

// run tracks a single request through the phase machine and logs each
// transition with the request's correlation ID.
type run struct {
	id     string
	kind   Kind
	phase  Phase
	logger *slog.Logger
}

func newRun(kind Kind, logger *slog.Logger) *run {
	return &run{
		id:     uuid.NewString(),
		kind:   kind,
		phase:  PhaseValidating,
		logger: logger,
	}
}

// advance moves the run to the next phase, enforcing the transition table.
func (r *run) advance(to Phase) error {
	if !canTransition(r.phase, to) {
		return ErrInvalidTransition
	}
	r.phase = to
	r.logger.Debug("phase transition",
		slog.String("request_id", r.id),
		slog.String("kind", string(r.kind)),
		slog.String("phase", string(to)),
	)
	return nil
}

// fail moves the run to the Failed terminal state and wraps err in a
// failure outcome.
func (r *run) fail(err *Error) Outcome {
	r.phase = PhaseFailed
	r.logger.Warn("compression failed",
		slog.String("request_id", r.id),
		slog.String("kind", string(r.kind)),
		slog.String("code", string(err.Code)),
		slog.String("error", err.Message),
	)
	return failure(err)
}

// complete moves the run to the Complete terminal state.
func (r *run) complete(outputPath, archiveURL string) Outcome {
	r.phase = PhaseComplete
	r.logger.Info("compression complete",
		slog.String("request_id", r.id),
		slog.String("kind", string(r.kind)),
		slog.String("output", outputPath),
	)
	return success(outputPath, archiveURL)
}
