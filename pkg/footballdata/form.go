package footballdata

import "strings"

// Form summarizes a team's recent results.
type Form struct {
	Points        int
	Wins          int
	Draws         int
	Losses        int
	GoalsScored   int
	GoalsConceded int
	Played        int
	Rating        float64 // 0-100, points-per-game based with goal-difference and recency adjustments
	Recent        string  // last five results, e.g. "WWDLW"
	GoalsPerGame  float64
}

// ComputeForm derives a form summary for the team from its match history.
// Only the last ten finished matches count; the last five are weighted more
// heavily in the rating.
func ComputeForm(matches []Match, teamID int64) Form {
	if len(matches) > 10 {
		matches = matches[len(matches)-10:]
	}

	var form Form
	var recent []byte

	for _, m := range matches {
		if !m.Finished() {
			continue
		}
		isHome := m.HomeTeam.ID == teamID
		teamGoals := *m.Score.FullTime.Home
		oppGoals := *m.Score.FullTime.Away
		if !isHome {
			teamGoals, oppGoals = oppGoals, teamGoals
		}

		form.GoalsScored += teamGoals
		form.GoalsConceded += oppGoals

		switch {
		case teamGoals > oppGoals:
			form.Wins++
			recent = append(recent, 'W')
		case teamGoals == oppGoals:
			form.Draws++
			recent = append(recent, 'D')
		default:
			form.Losses++
			recent = append(recent, 'L')
		}
	}

	form.Played = form.Wins + form.Draws + form.Losses
	form.Points = form.Wins*3 + form.Draws

	if form.Played == 0 {
		form.Rating = 50
		return form
	}

	form.GoalsPerGame = float64(form.GoalsScored) / float64(form.Played)

	pointsPerGame := float64(form.Points) / float64(form.Played)
	goalDiffPerGame := float64(form.GoalsScored-form.GoalsConceded) / float64(form.Played)

	rating := pointsPerGame / 3 * 100
	rating += goalDiffPerGame * 5

	// Blend in the last five results at 30%.
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	recentPoints := 0
	for _, r := range recent {
		switch r {
		case 'W':
			recentPoints += 3
		case 'D':
			recentPoints++
		}
	}
	if len(recent) > 0 {
		recentRating := float64(recentPoints) / float64(len(recent)*3) * 100
		rating = rating*0.7 + recentRating*0.3
	}

	form.Rating = clampRating(rating, 0, 100)
	form.Recent = string(recent)
	return form
}

// leagueStrength ranks competitions so the same form counts for more in a
// stronger league.
var leagueStrength = map[string]float64{
	"premier league":   95,
	"primera división": 93,
	"la liga":          93,
	"bundesliga":       90,
	"serie a":          88,
	"ligue 1":          85,
	"champions league": 98,
	"europa league":    82,
	"championship":     75,
	"primeira liga":    78,
	"eredivisie":       80,
}

// historicalBonus nudges ratings for clubs whose level is well established
// beyond a ten-match window.
var historicalBonus = map[string]float64{
	"manchester city": 18, "liverpool": 17, "real madrid": 20, "barcelona": 18,
	"bayern munich": 19, "paris saint-germain": 16,

	"chelsea": 14, "arsenal": 14, "manchester united": 13, "atletico madrid": 14,
	"borussia dortmund": 13, "juventus": 14, "ac milan": 13, "inter": 13, "napoli": 13,

	"tottenham": 10, "newcastle": 8, "sevilla": 10, "real sociedad": 8,
	"villarreal": 8, "rb leipzig": 10, "bayer leverkusen": 10,
	"eintracht frankfurt": 8, "atalanta": 9, "roma": 9, "lazio": 8,
	"marseille": 9, "lyon": 9, "monaco": 9,

	"ajax": 10, "psv": 8, "benfica": 10, "porto": 10, "sporting": 8,
	"brighton": 6, "west ham": 7, "leicester": 7, "everton": 6,
	"wolves": 6, "crystal palace": 5, "bournemouth": 4,

	"coventry": -5, "stoke": -3, "birmingham": -4, "swansea": -3,
	"wrexham": -8, "norwich": -2, "hull": -3,
}

// StrengthScore combines form with league level and historical standing into
// a single 20-95 rating.
func StrengthScore(form Form, teamName, competitionName string) float64 {
	score := form.Rating

	compLower := strings.ToLower(competitionName)
	for league, strength := range leagueStrength {
		if strings.Contains(compLower, league) {
			score += (strength - 80) * 0.3
			break
		}
	}

	teamLower := strings.ToLower(teamName)
	for club, bonus := range historicalBonus {
		if strings.Contains(teamLower, club) {
			score += bonus
			break
		}
	}

	return clampRating(score, 20, 95)
}

func clampRating(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
