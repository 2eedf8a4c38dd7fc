package openai

import (
	"fmt"
	"strings"

	"github.com/matzehuels/dealprep/pkg/cache"
)

var industries = []string{
	"Enterprise Software",
	"Financial Services",
	"Manufacturing",
	"Healthcare",
	"Retail",
	"Logistics",
}

var firstNames = []string{"Alex", "Jordan", "Morgan", "Taylor", "Casey", "Riley", "Jamie", "Avery"}
var lastNames = []string{"Chen", "Garcia", "Okafor", "Schmidt", "Patel", "Novak", "Silva", "Kim"}
var titles = []string{"Chief Executive Officer", "Chief Financial Officer", "Chief Technology Officer", "VP of Sales"}

var talkingPoints = []string{
	"Ask how %s measures success for new vendor rollouts.",
	"Explore where %s sees friction in its current tooling.",
	"Discuss %s's expansion plans for the next fiscal year.",
	"Confirm who else at %s is involved in the buying decision.",
	"Reference recent %s announcements to open the conversation.",
	"Probe %s's timeline and budget cycle.",
}

// Fallback returns a deterministic synthetic [Insight] for company.
func Fallback(company string) Insight {
	name := strings.TrimSpace(company)
	if name == "" {
		name = "The company"
	}
	seed := cache.Seed(company)
	industry := industries[seed%uint64(len(industries))]

	execs := make([]Executive, len(titles))
	for i, title := range titles {
		execs[i] = Executive{
			Name: firstNames[(seed>>uint(8+i))%uint64(len(firstNames))] + " " +
				lastNames[(seed>>uint(16+i*3))%uint64(len(lastNames))],
			Title: title,
		}
	}

	points := make([]string, 0, 3)
	for i := range 3 {
		tpl := talkingPoints[(int(seed>>32)+i*2)%len(talkingPoints)]
		points = append(points, fmt.Sprintf(tpl, name))
	}

	return Insight{
		Company: company,
		Summary: fmt.Sprintf("%s is a %s company. Live research is unavailable; this profile is a placeholder.",
			name, strings.ToLower(industry)),
		Industry:      industry,
		Executives:    execs,
		TalkingPoints: points,
	}
}
