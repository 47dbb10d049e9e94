package season

import "fmt"

// Season is one edition of a league with a fixed set of participating teams.
type Season struct {
	ID              string
	LeagueID        string
	Name            string
	PromotionSpots  int
	RelegationSpots int
	TeamIDs         []string
}

func (s Season) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("season id is required")
	}
	if s.LeagueID == "" {
		return fmt.Errorf("season league id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("season name is required")
	}
	if s.PromotionSpots < 0 || s.RelegationSpots < 0 {
		return fmt.Errorf("season promotion and relegation spots must be >= 0")
	}

	return nil
}
