package team

import "fmt"

// Team is a club as identified by the external data provider. The ID is
// the provider's identifier and is the only stable key; name, code and
// crest are refreshed on every sync.
type Team struct {
	ID    int64
	Name  string
	Code  string
	Crest string
}

func (t Team) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
