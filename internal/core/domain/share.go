package domain

import (
	"fmt"
	"math/rand/v2"
)

var shareTemplates = []string{
	"My must-see act at %[2]s is %[1]s! Find yours: %[3]s",
	"Turns out %[1]s is my %[2]s soulmate. Who's yours? %[3]s",
	"The algorithm has spoken: I'm seeing %[1]s at %[2]s. %[3]s",
	"Clearing my schedule for %[1]s at %[2]s. Get your match at %[3]s",
	"%[1]s at %[2]s, apparently made for my ears. %[3]s",
	"Just found my %[2]s must-see: %[1]s. Try it: %[3]s",
}

// ShareText fills a randomly chosen share template. rng must not be nil.
func ShareText(rng *rand.Rand, actName, festival, shareURL string) string {
	tmpl := shareTemplates[rng.IntN(len(shareTemplates))]
	return fmt.Sprintf(tmpl, actName, festival, shareURL)
}
