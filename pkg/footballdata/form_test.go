package footballdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const formTeamID int64 = 57

// finished builds a finished match from the perspective of formTeamID.
func finished(teamGoals, oppGoals int, home bool) Match {
	tg, og := teamGoals, oppGoals
	m := Match{
		ID:      1,
		UTCDate: time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC),
		Status:  "FINISHED",
	}
	if home {
		m.HomeTeam = Team{ID: formTeamID}
		m.AwayTeam = Team{ID: 99}
		m.Score.FullTime.Home = &tg
		m.Score.FullTime.Away = &og
	} else {
		m.HomeTeam = Team{ID: 99}
		m.AwayTeam = Team{ID: formTeamID}
		m.Score.FullTime.Home = &og
		m.Score.FullTime.Away = &tg
	}
	return m
}

func TestComputeForm_NoMatches(t *testing.T) {
	form := ComputeForm(nil, formTeamID)
	assert.Equal(t, 0, form.Played)
	assert.Equal(t, 50.0, form.Rating)
}

func TestComputeForm_PerfectRecord(t *testing.T) {
	var matches []Match
	for range 5 {
		matches = append(matches, finished(2, 0, true))
	}

	form := ComputeForm(matches, formTeamID)
	assert.Equal(t, 5, form.Wins)
	assert.Equal(t, 15, form.Points)
	assert.Equal(t, 100.0, form.Rating)
	assert.Equal(t, "WWWWW", form.Recent)
	assert.Equal(t, 2.0, form.GoalsPerGame)
}

func TestComputeForm_AllLosses(t *testing.T) {
	var matches []Match
	for range 5 {
		matches = append(matches, finished(0, 2, false))
	}

	form := ComputeForm(matches, formTeamID)
	assert.Equal(t, 5, form.Losses)
	assert.Equal(t, 0, form.Points)
	assert.Equal(t, 0.0, form.Rating)
	assert.Equal(t, "LLLLL", form.Recent)
}

func TestComputeForm_AwayGoalsCountedFromTeamSide(t *testing.T) {
	form := ComputeForm([]Match{finished(3, 1, false)}, formTeamID)
	assert.Equal(t, 1, form.Wins)
	assert.Equal(t, 3, form.GoalsScored)
	assert.Equal(t, 1, form.GoalsConceded)
}

func TestComputeForm_SkipsUnfinished(t *testing.T) {
	scheduled := Match{Status: "SCHEDULED", HomeTeam: Team{ID: formTeamID}}
	form := ComputeForm([]Match{scheduled, finished(1, 1, true)}, formTeamID)
	assert.Equal(t, 1, form.Played)
	assert.Equal(t, 1, form.Draws)
}

func TestComputeForm_OnlyLastTenCount(t *testing.T) {
	var matches []Match
	// Old heavy losses pushed out of the window by ten recent wins.
	for range 5 {
		matches = append(matches, finished(0, 5, true))
	}
	for range 10 {
		matches = append(matches, finished(1, 0, true))
	}

	form := ComputeForm(matches, formTeamID)
	assert.Equal(t, 10, form.Played)
	assert.Equal(t, 10, form.Wins)
	assert.Equal(t, 0, form.Losses)
}

func TestComputeForm_RecentFormWeighted(t *testing.T) {
	// Five early wins then five recent losses should rate below the flat
	// points-per-game figure.
	var matches []Match
	for range 5 {
		matches = append(matches, finished(2, 0, true))
	}
	for range 5 {
		matches = append(matches, finished(0, 2, true))
	}

	form := ComputeForm(matches, formTeamID)
	flat := float64(form.Points) / float64(form.Played) / 3 * 100
	assert.Less(t, form.Rating, flat)
	assert.Equal(t, "LLLLL", form.Recent)
}

func TestStrengthScore_LeagueAndHistoryBonuses(t *testing.T) {
	form := Form{Played: 5, Rating: 60}

	base := StrengthScore(form, "Unknown FC", "Some Cup")
	topFlight := StrengthScore(form, "Unknown FC", "Premier League")
	elite := StrengthScore(form, "Real Madrid CF", "Primera División")

	assert.Equal(t, 60.0, base)
	assert.Greater(t, topFlight, base)
	assert.Greater(t, elite, topFlight)
}

func TestStrengthScore_Clamped(t *testing.T) {
	assert.Equal(t, 95.0, StrengthScore(Form{Rating: 100}, "Real Madrid", "Champions League"))
	assert.Equal(t, 20.0, StrengthScore(Form{Rating: 5}, "Wrexham AFC", "Championship"))
}
