package article

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sotakubo/autopost/app/database"
)

// Submission is one auto-post request: a batch of keywords to turn into
// scheduled articles against a single site.
type Submission struct {
	UserID      string
	Site        database.Site
	Keywords    []string
	TitlePrompt string
	BodyPrompt  string
	Genre       string
}

// Intake converts submissions into persisted scheduled posts. Each keyword
// yields 2-3 article variants; schedule slots are consumed in order with a
// next-day fallback once the planned sequence is exhausted.
type Intake struct {
	posts    database.PostRepository
	controls database.ControlRepository
	planner  *Planner
	rng      *rand.Rand

	// variantPicker decides how many articles one keyword yields.
	// Overridable for tests.
	variantPicker func() int
}

func NewIntake(posts database.PostRepository, controls database.ControlRepository, planner *Planner) *Intake {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	in := &Intake{
		posts:    posts,
		controls: controls,
		planner:  planner,
		rng:      rng,
	}
	in.variantPicker = func() int { return 2 + rng.Intn(2) }
	return in
}

// SetVariantPicker overrides the per-keyword variant count (useful for testing).
func (in *Intake) SetVariantPicker(pick func() int) {
	in.variantPicker = pick
}

// Submit plans the posting schedule and persists one pending post per
// keyword variant. Submitting also clears the user's stop flag so a
// previously halted pipeline resumes.
func (in *Intake) Submit(sub Submission, now time.Time) ([]database.ScheduledPost, error) {
	if len(sub.Keywords) == 0 {
		return nil, fmt.Errorf("submission has no keywords")
	}
	if sub.TitlePrompt == "" || sub.BodyPrompt == "" {
		return nil, fmt.Errorf("submission has no prompts")
	}

	if err := in.controls.SetStopFlag(sub.UserID, false); err != nil {
		return nil, fmt.Errorf("failed to clear stop flag: %w", err)
	}

	schedule := in.planner.Plan(now)

	var created []database.ScheduledPost
	slot := 0
	for _, keyword := range sub.Keywords {
		variants := in.variantPicker()
		for v := 0; v < variants; v++ {
			scheduledTime := now.Add(24 * time.Hour).UTC()
			if slot < len(schedule) {
				scheduledTime = schedule[slot]
			}
			slot++

			post := database.ScheduledPost{
				UserID:        sub.UserID,
				SiteID:        sub.Site.ID,
				Keyword:       keyword,
				Genre:         sub.Genre,
				TitlePrompt:   sub.TitlePrompt,
				BodyPrompt:    sub.BodyPrompt,
				Status:        database.StatusPendingGeneration,
				ScheduledTime: scheduledTime,
				SiteURL:       sub.Site.SiteURL,
				WPUsername:    sub.Site.WPUsername,
				WPAppPassword: sub.Site.WPAppPassword,
			}

			if err := in.posts.CreatePost(&post); err != nil {
				return created, fmt.Errorf("failed to create post for keyword %q: %w", keyword, err)
			}

			created = append(created, post)
		}
	}

	return created, nil
}
