package motivation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"attendtrack/internal/dates"
	"attendtrack/internal/metrics"
)

// Message sources.
const (
	SourceGenerated = "generated"
	SourceCached    = "cached"
	SourceFallback  = "fallback"
)

var fallbacks = []string{
	"Every class you attend is a step closer to your goals. Keep going!",
	"Consistency beats intensity. Show up today and your future self will thank you.",
	"Small steps every day add up to big results. You've got this!",
	"Your attendance today builds the habits that carry you through the semester.",
	"Stay focused and keep showing up. Progress is made one class at a time.",
	"Success is the sum of small efforts repeated day in and day out.",
}

var nowFunc = time.Now

// Result is the message handed to the client.
type Result struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Day    string `json:"day"`
}

// Service returns one message per user per local day.
type Service struct {
	gen   Generator
	cache Cache
	loc   *time.Location
	log   *slog.Logger
}

// NewService wires the service. gen may be nil, in which case only fallback
// text is served.
func NewService(gen Generator, cache Cache, loc *time.Location, log *slog.Logger) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{gen: gen, cache: cache, loc: loc, log: log}
}

// Message returns today's message for userID, generating a new one when the
// cached entry is stale or force is set. It never fails: generator and cache
// errors fall back to local text.
func (s *Service) Message(ctx context.Context, userID string, p Prompt, force bool) Result {
	now := nowFunc().In(s.loc)
	today := dates.FormatLocalDate(now)

	if !force {
		e, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.log.Warn("motivation_cache_get_failed", "user_id", userID, "error", err)
		} else if ok && !e.IsStale(today) {
			return Result{Text: e.Value, Source: SourceCached, Day: today}
		}
	}

	res := Result{Source: SourceGenerated, Day: today}
	if s.gen != nil {
		text, err := s.gen.Generate(ctx, p)
		if err != nil && !errors.Is(err, ErrDisabled) {
			s.log.Warn("motivation_generate_failed", "user_id", userID, "error", err)
		}
		res.Text = text
	}
	if res.Text == "" {
		metrics.MotivationFallbacks.Inc()
		res.Text = Fallback(now)
		res.Source = SourceFallback
	}

	if err := s.cache.Put(ctx, userID, Entry{Value: res.Text, GeneratedOnDayKey: today}); err != nil {
		s.log.Warn("motivation_cache_put_failed", "user_id", userID, "error", err)
	}
	return res
}

// Fallback picks the local message for the day of t.
func Fallback(t time.Time) string {
	return fallbacks[t.YearDay()%len(fallbacks)]
}
