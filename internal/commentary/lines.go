package commentary

import "fmt"

// LineWelcome opens the commentary feed for a race.
func LineWelcome(a, b string) string {
	return fmt.Sprintf("Welcome to MoonRace! Today's match-up: %s vs %s!", a, b)
}

// LineOpeningLead sets the scene with the current leader.
func LineOpeningLead(leader, chaser string) string {
	return fmt.Sprintf("%s holds a narrow lead, but %s is building momentum...", leader, chaser)
}
