package measure

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report is the survey entry for one part.
type Report struct {
	Part        string `json:"part"`
	Dims        Dims   `json:"dimensions"`
	Orientation Angles `json:"orientation"`
}

// Survey measures every part concurrently, at most WithWorkers at a time.
// Reports are in the order of parts. The first failure cancels the rest.
func (s *Service) Survey(ctx context.Context, parts []Part) ([]Report, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	reports := make([]Report, len(parts))
	for i, p := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := s.Dimensions(p)
			if err != nil {
				return err
			}
			o, err := s.Orientation(p)
			if err != nil {
				return err
			}
			reports[i] = Report{Part: p.name, Dims: d, Orientation: o}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log().Debug("survey complete", zap.Int("parts", len(parts)))
	return reports, nil
}

// Survey measures parts with the default Service.
func Survey(ctx context.Context, parts []Part) ([]Report, error) { return std.Survey(ctx, parts) }
