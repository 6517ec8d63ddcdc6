// Package seed provides fixture data: the starter tag catalog and a
// generator of plausible mock guests.
package seed

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

// StarterTags returns the catalog a fresh service starts with.
func StarterTags() []types.Tag {
	return []types.Tag{
		{ID: "tag-1", Name: "VIP", Color: "#FF5A5F"},
		{ID: "tag-2", Name: "Friend", Color: "#00A699"},
		{ID: "tag-3", Name: "Family", Color: "#FC642D"},
		{ID: "tag-4", Name: "Business", Color: "#4D5AE5"},
		{ID: "tag-5", Name: "Press", Color: "#767676"},
	}
}

// Generated guests stay under this follower count.
const maxFollowers = 1_000_000

// handleAttempts is how many patterns are tried before falling back to a
// numbered handle.
const handleAttempts = 10

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda",
	"William", "Elizabeth", "David", "Susan", "Richard", "Jessica", "Joseph", "Sarah",
	"Thomas", "Karen", "Charles", "Nancy", "Christopher", "Lisa", "Daniel", "Margaret",
	"Matthew", "Betty", "Anthony", "Sandra", "Mark", "Ashley", "Donald", "Kimberly",
	"Steven", "Emily", "Paul", "Donna", "Andrew", "Michelle", "Joshua", "Carol",
	"Kenneth", "Amanda", "Kevin", "Dorothy", "Brian", "Melissa", "George", "Deborah",
	"Edward", "Stephanie", "Ronald", "Rebecca", "Timothy", "Sharon", "Jason", "Laura",
	"Nicholas", "Emma", "Olivia", "Sophia", "Benjamin", "Mia", "Samuel", "Charlotte",
	"Alexander", "Harper", "Henry", "Grace", "Nathan", "Chloe", "Noah", "Hannah",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
	"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
	"White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker",
	"Young", "Allen", "King", "Wright", "Scott", "Torres", "Nguyen", "Hill", "Flores",
	"Green", "Adams", "Nelson", "Baker", "Hall", "Rivera", "Campbell", "Mitchell",
	"Carter", "Roberts", "Kim", "Patel", "Bennett", "Gray", "Ross", "Foster",
}

// handlePatterns build an instagram handle (without the @) from a lowercase
// first and last name.
var handlePatterns = []func(r *rand.Rand, first, last string) string{
	func(_ *rand.Rand, f, l string) string { return f + l },
	func(_ *rand.Rand, f, l string) string { return f + "_" + l },
	func(r *rand.Rand, f, l string) string { return fmt.Sprintf("%s%s%d", f, l, r.IntN(1000)) },
	func(_ *rand.Rand, f, l string) string { return f + "." + l },
	func(_ *rand.Rand, f, _ string) string { return "the_real_" + f },
	func(r *rand.Rand, f, _ string) string { return fmt.Sprintf("%s%d", f, r.IntN(100)) },
	func(_ *rand.Rand, f, l string) string { return l + "." + f },
	func(_ *rand.Rand, f, l string) string { return "official" + f + l[:1] },
	func(r *rand.Rand, f, l string) string { return fmt.Sprintf("%s%s%d", f[:1], l, r.IntN(1000)) },
	func(_ *rand.Rand, f, l string) string { return "iam" + f + l[:1] },
}

// Generator produces mock guests. Handles are unique across everything one
// Generator has produced. Not safe for concurrent use.
type Generator struct {
	r       *rand.Rand
	tags    []string
	handles map[string]bool
}

// NewGenerator returns a Generator drawing from r and tagging guests with
// names from tags. A nil r uses a randomly seeded source; empty tags use
// the starter catalog names.
func NewGenerator(r *rand.Rand, tags []string) *Generator {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if len(tags) == 0 {
		for _, t := range StarterTags() {
			tags = append(tags, t.Name)
		}
	}
	return &Generator{r: r, tags: tags, handles: make(map[string]bool)}
}

// Inputs returns n mock guest inputs.
func (g *Generator) Inputs(n int) []types.GuestInput {
	out := make([]types.GuestInput, 0, max(n, 0))
	for range n {
		out = append(out, g.Input())
	}
	return out
}

// Input returns one mock guest input.
func (g *Generator) Input() types.GuestInput {
	first := firstNames[g.r.IntN(len(firstNames))]
	last := lastNames[g.r.IntN(len(lastNames))]
	f, l := strings.ToLower(first), strings.ToLower(last)

	in := types.GuestInput{
		FullName:        first + " " + last,
		RSVPStatus:      types.RSVPStatuses[g.r.IntN(len(types.RSVPStatuses))],
		InstagramHandle: g.handle(f, l),
		FollowerCount:   g.r.IntN(maxFollowers),
		Tags:            g.pickTags(),
		Email:           f + "." + l + "@example.com",
		InvitedBefore:   g.r.Float64() > 0.5,
	}
	if g.r.Float64() > 0.7 {
		in.Notes = "Note for " + first
	}
	return in
}

func (g *Generator) handle(first, last string) string {
	for range handleAttempts {
		pattern := handlePatterns[g.r.IntN(len(handlePatterns))]
		h := "@" + pattern(g.r, first, last)
		if !g.handles[h] {
			g.handles[h] = true
			return h
		}
	}
	for {
		h := fmt.Sprintf("@%s%s%d", first, last, g.r.IntN(10000))
		if !g.handles[h] {
			g.handles[h] = true
			return h
		}
	}
}

// pickTags returns one to three distinct tag names.
func (g *Generator) pickTags() []string {
	n := min(g.r.IntN(3)+1, len(g.tags))
	picked := make([]string, len(g.tags))
	copy(picked, g.tags)
	g.r.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked[:n]
}
