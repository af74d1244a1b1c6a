// Package seed creates demo data for development environments. The explore
// feed is empty on a fresh install; these helpers give it something to show.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"swappi/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls how much demo data gets created.
type Options struct {
	ExtraProfiles int
	ShouldClean   bool
}

// curated demo profiles shown first in the explore feed
var demoProfiles = []models.Profile{
	{
		Name: "Zoya 🎨", Vibe: "Creative chaos", Mood: "🎨",
		SkillsKnown:  []string{"Sketching", "Watercolor"},
		SkillsWanted: []string{"Guitar"},
	},
	{
		Name: "Aarav 🎸", Vibe: "Late night jams", Mood: "🎸",
		SkillsKnown:  []string{"Guitar", "Songwriting"},
		SkillsWanted: []string{"Video editing"},
	},
	{
		Name: "Rhea 💻", Vibe: "Ship it", Mood: "💻",
		SkillsKnown:  []string{"Python", "Web dev"},
		SkillsWanted: []string{"Public speaking"},
	},
	{
		Name: "Ishaan 🧘‍♂️", Vibe: "Slow mornings", Mood: "🧘‍♂️",
		SkillsKnown:  []string{"Yoga", "Meditation"},
		SkillsWanted: []string{"Photography"},
	},
	{
		Name: "Tara 🧁", Vibe: "Flour everywhere", Mood: "🧁",
		SkillsKnown:  []string{"Baking", "Cake design"},
		SkillsWanted: []string{"French"},
	},
}

var skillPool = []string{
	"Guitar", "Piano", "Sketching", "Watercolor", "Photography", "Baking",
	"Yoga", "Chess", "Spanish", "French", "Python", "Web dev", "UI design",
	"Video editing", "Pottery", "Climbing", "Salsa", "Public speaking",
}

// Explore populates demo users and profiles for the explore feed.
func Explore(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := db.Where("email LIKE ?", "%@demo.swappi.local").Delete(&models.Profile{}).Error; err != nil {
			return fmt.Errorf("cleaning demo profiles: %w", err)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(gofakeit.Password(true, true, true, true, false, 16)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	created := 0
	for _, demo := range demoProfiles {
		if err := createDemoProfile(db, demo, string(hashed)); err != nil {
			return err
		}
		created++
	}

	for i := 0; i < opts.ExtraProfiles; i++ {
		if err := createDemoProfile(db, randomProfile(), string(hashed)); err != nil {
			return err
		}
		created++
	}

	log.Printf("Seeded %d demo profiles", created)
	return nil
}

func createDemoProfile(db *gorm.DB, profile models.Profile, passwordHash string) error {
	email := demoEmail(profile.Name)

	user := models.User{
		Name:      profile.Name,
		Email:     email,
		Password:  passwordHash,
		Onboarded: true,
	}
	if err := db.Where("email = ?", email).FirstOrCreate(&user).Error; err != nil {
		return fmt.Errorf("creating demo user %s: %w", email, err)
	}

	profile.UserID = user.ID
	profile.Email = email
	if err := db.Where("user_id = ?", user.ID).FirstOrCreate(&profile).Error; err != nil {
		return fmt.Errorf("creating demo profile for %s: %w", email, err)
	}
	return nil
}

func randomProfile() models.Profile {
	name := gofakeit.FirstName()
	known := pickSkills(1 + gofakeit.Number(0, 2))
	wanted := pickSkills(1 + gofakeit.Number(0, 2))

	return models.Profile{
		Name:         name,
		Vibe:         gofakeit.HipsterSentence(3),
		Mood:         gofakeit.Emoji(),
		SkillsKnown:  known,
		SkillsWanted: wanted,
		Note:         gofakeit.HipsterSentence(6),
	}
}

func pickSkills(n int) []string {
	out := make([]string, 0, n)
	seen := map[string]bool{}
	for len(out) < n {
		s := skillPool[gofakeit.Number(0, len(skillPool)-1)]
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func demoEmail(name string) string {
	base := strings.ToLower(strings.Fields(name)[0])
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	if cleaned == "" {
		cleaned = gofakeit.Username()
	}
	return cleaned + "@demo.swappi.local"
}
