package league

import "fmt"

// League is a competition organised within one country.
type League struct {
	ID        string
	Name      string
	CountryID string
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.CountryID == "" {
		return fmt.Errorf("league country id is required")
	}

	return nil
}
