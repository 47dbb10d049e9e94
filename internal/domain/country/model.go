package country

import "fmt"

type Country struct {
	ID   string
	Name string
	Code string
}

func (c Country) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("country id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("country name is required")
	}

	return nil
}
