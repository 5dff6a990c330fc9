package diagnosis

import (
	"context"
	"fmt"

	"github.com/hyperjump/medtriage/internal/agent"
	"github.com/hyperjump/medtriage/internal/models"
)

// RegisterHandlers installs the structured and raw diagnosis request handlers on d.
// Both reply with SchemaDiagnosisResponse.
func (s *Service) RegisterHandlers(d *agent.Dispatcher) {
	id := d.Identity()
	d.Handle(agent.SchemaDiagnosisFromSymptoms, func(ctx context.Context, env *agent.Envelope) ([]*agent.Envelope, error) {
		var report models.SymptomReport
		if err := env.Decode(&report); err != nil {
			return nil, err
		}
		if err := report.Validate(); err != nil {
			return nil, fmt.Errorf("%w: invalid symptom report: %w", agent.ErrBadRequest, err)
		}
		return reply(env, id, s.FromSymptoms(ctx, &report))
	})
	d.Handle(agent.SchemaDiagnosisRaw, func(ctx context.Context, env *agent.Envelope) ([]*agent.Envelope, error) {
		var req models.RawRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		return reply(env, id, s.FromRaw(ctx, req.Text))
	})
}

func reply(env *agent.Envelope, id agent.Identity, res *models.DiagnosisResult) ([]*agent.Envelope, error) {
	out, err := env.Reply(id, agent.SchemaDiagnosisResponse, res)
	if err != nil {
		return nil, err
	}
	return []*agent.Envelope{out}, nil
}

// ChatFlow diagnoses chat text as a raw request and renders the result with format.
func (s *Service) ChatFlow(format func(*models.DiagnosisResult) string) agent.ChatFlow {
	return func(ctx context.Context, text string) (string, error) {
		return format(s.FromRaw(ctx, text)), nil
	}
}
