package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/integrations"
	"github.com/matzehuels/dealprep/pkg/integrations/builtwith"
	"github.com/matzehuels/dealprep/pkg/integrations/news"
	"github.com/matzehuels/dealprep/pkg/integrations/openai"
)

// Brief bundles everything needed to prepare one sales meeting.
type Brief struct {
	ID          uuid.UUID                             `json:"id"`
	Company     string                                `json:"company"`
	Domain      string                                `json:"domain,omitempty"`
	Environment string                                `json:"environment"`
	Insight     integrations.Result[openai.Insight]   `json:"insight"`
	Stack       *integrations.Result[builtwith.Stack] `json:"stack,omitempty"`
	News        integrations.Result[[]news.Item]      `json:"news"`
	GeneratedAt time.Time                             `json:"generated_at"`
}

// Degraded reports whether any part of the brief is synthetic.
func (b *Brief) Degraded() bool {
	if b.Stack != nil && !b.Stack.Live() {
		return true
	}
	return !b.Insight.Live() || !b.News.Live()
}

// Brief fetches the insight, headlines and (when domain is non-empty) the
// technology stack for company concurrently. All parts come from the same
// environment even if it is switched mid-flight.
func (s *Service) Brief(ctx context.Context, company, domain string) (*Brief, error) {
	if err := errs.ValidateQuery(company); err != nil {
		return nil, err
	}

	src := s.current.Load()
	b := &Brief{
		ID:          uuid.New(),
		Company:     company,
		Domain:      domain,
		Environment: string(src.profile.Name),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.Insight, err = src.openai.Fetch(gctx, company)
		return err
	})
	g.Go(func() (err error) {
		b.News, err = src.news.Fetch(gctx, company)
		return err
	})
	if domain != "" {
		g.Go(func() error {
			stack, err := src.builtwith.Fetch(gctx, domain)
			b.Stack = &stack
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.GeneratedAt = s.now().UTC()
	s.logger.Debug("brief ready", "id", b.ID, "company", company, "degraded", b.Degraded())
	return b, nil
}
