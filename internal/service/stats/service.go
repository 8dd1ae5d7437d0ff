package stats

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
)

// DefaultDays is the bookings-over-time window when none is requested.
const DefaultDays = 30

const maxDays = 366

// Service computes dashboard statistics. Day and weekday buckets use the
// clinic's timezone.
type Service struct {
	repo repository.StatsRepository
	loc  *time.Location
	now  func() time.Time
}

func NewService(repo repository.StatsRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

func (s *Service) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	stats, err := s.repo.Dashboard(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	return stats, nil
}

// BookingsOverTime returns one entry per day for the last days days, oldest
// first, including days without bookings.
func (s *Service) BookingsOverTime(ctx context.Context, days int) ([]model.DailyCount, error) {
	if days <= 0 {
		days = DefaultDays
	}
	if days > maxDays {
		return nil, errors.Validation(map[string]string{"days": "must be at most 366"})
	}

	today := model.DateOf(s.now().In(s.loc))
	first := today.AddDays(-(days - 1))

	created, err := s.repo.BookingCreationTimes(ctx, first.At(0, 0, s.loc))
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	counts := make(map[model.Date]int, days)
	for _, t := range created {
		counts[model.DateOf(t.In(s.loc))]++
	}

	out := make([]model.DailyCount, 0, days)
	for d := first; !today.Before(d); d = d.AddDays(1) {
		out = append(out, model.DailyCount{Date: d.String(), Count: counts[d]})
	}
	return out, nil
}

func (s *Service) ServiceStats(ctx context.Context) ([]model.ServiceStat, error) {
	usage, err := s.repo.ServiceUsage(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	out := make([]model.ServiceStat, 0, len(usage))
	for _, u := range usage {
		stat := model.ServiceStat{Name: u.Name, Bookings: u.Bookings}
		if u.Price != nil {
			stat.Revenue = float64(u.Bookings) * *u.Price
		}
		out = append(out, stat)
	}
	return out, nil
}

func (s *Service) StatusDistribution(ctx context.Context) ([]*model.StatusCount, error) {
	dist, err := s.repo.StatusDistribution(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	if dist == nil {
		dist = []*model.StatusCount{}
	}
	return dist, nil
}

// PeakTimes counts bookings by the weekday of their start, Sunday first.
func (s *Service) PeakTimes(ctx context.Context) ([]model.WeekdayCount, error) {
	starts, err := s.repo.StartTimes(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	var counts [7]int
	for _, t := range starts {
		counts[t.In(s.loc).Weekday()]++
	}

	out := make([]model.WeekdayCount, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		out[d] = model.WeekdayCount{Day: d.String(), Bookings: counts[d]}
	}
	return out, nil
}
