package team

import "fmt"

// Team is a club that can be fielded in matches.
type Team struct {
	ID        string
	Name      string
	ShortName string
	CountryID string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.CountryID == "" {
		return fmt.Errorf("team country id is required")
	}

	return nil
}
