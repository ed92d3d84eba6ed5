package article

import (
	"math/rand"
	"sort"
	"time"
)

const (
	// Posting window, in the planner's local zone.
	windowStartHour = 10
	windowEndHour   = 21

	// Sampling attempts per slot before falling back to the best candidate
	// seen so far. Keeps the loop bounded when the gap constraint is tight.
	maxSlotAttempts = 100
)

// dailyCountWeights is the discrete distribution of posts per day:
// 1 post x1, 2 x2, 3 x4, 4 x6, 5 x2 (mode at 4).
var dailyCountWeights = []int{1, 2, 4, 6, 2}

// Planner computes the posting schedule: for each of the next N days it draws
// a post count from a weighted distribution and samples times of day inside
// the posting window, honoring a minimum gap between same-day posts.
// Sampling happens in a fixed local zone; results are returned in UTC.
type Planner struct {
	location *time.Location
	days     int
	minGap   time.Duration
	rng      *rand.Rand
}

func NewPlanner(location *time.Location, days int, minGap time.Duration) *Planner {
	return NewPlannerWithRand(location, days, minGap,
		rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewPlannerWithRand creates a Planner with a caller-supplied random source
// (useful for testing).
func NewPlannerWithRand(location *time.Location, days int, minGap time.Duration, rng *rand.Rand) *Planner {
	if location == nil {
		location = time.UTC
	}
	return &Planner{
		location: location,
		days:     days,
		minGap:   minGap,
		rng:      rng,
	}
}

// Plan returns the full ascending schedule starting tomorrow at local
// midnight relative to now.
func (p *Planner) Plan(now time.Time) []time.Time {
	local := now.In(p.location)
	baseStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.location).
		AddDate(0, 0, 1)

	var schedule []time.Time
	for day := 0; day < p.days; day++ {
		date := baseStart.AddDate(0, 0, day)
		count := p.drawDailyCount()
		schedule = append(schedule, p.sampleDay(date, count)...)
	}

	sort.Slice(schedule, func(i, j int) bool {
		return schedule[i].Before(schedule[j])
	})

	for i := range schedule {
		schedule[i] = schedule[i].UTC()
	}

	return schedule
}

func (p *Planner) drawDailyCount() int {
	total := 0
	for _, w := range dailyCountWeights {
		total += w
	}

	pick := p.rng.Intn(total)
	for i, w := range dailyCountWeights {
		if pick < w {
			return i + 1
		}
		pick -= w
	}

	return len(dailyCountWeights)
}

// sampleDay draws count times of day for the given date, each at least minGap
// away from the already-accepted times. When the attempt budget is exhausted
// the candidate farthest from its nearest neighbor is accepted instead, so a
// tight gap constraint degrades spacing rather than looping forever.
func (p *Planner) sampleDay(date time.Time, count int) []time.Time {
	accepted := make([]time.Time, 0, count)

	for slot := 0; slot < count; slot++ {
		var best time.Time
		bestGap := time.Duration(-1)

		for attempt := 0; attempt < maxSlotAttempts; attempt++ {
			hour := windowStartHour + p.rng.Intn(windowEndHour-windowStartHour+1)
			minute := p.rng.Intn(60)
			candidate := time.Date(date.Year(), date.Month(), date.Day(),
				hour, minute, 0, 0, p.location)

			gap := nearestGap(candidate, accepted)
			if gap < 0 || gap >= p.minGap {
				best = candidate
				bestGap = gap
				break
			}
			if gap > bestGap {
				best = candidate
				bestGap = gap
			}
		}

		accepted = append(accepted, best)
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Before(accepted[j])
	})

	return accepted
}

// nearestGap returns the absolute distance from candidate to the closest
// accepted time, or -1 when nothing has been accepted yet.
func nearestGap(candidate time.Time, accepted []time.Time) time.Duration {
	if len(accepted) == 0 {
		return -1
	}

	nearest := time.Duration(-1)
	for _, t := range accepted {
		d := candidate.Sub(t)
		if d < 0 {
			d = -d
		}
		if nearest < 0 || d < nearest {
			nearest = d
		}
	}

	return nearest
}
