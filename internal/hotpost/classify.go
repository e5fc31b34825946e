package hotpost

import "fmt"

// Tier is the transition signal emitted by the classifier. At most one tier
// fires per event.
type Tier string

const (
	TierNone  Tier = ""
	TierEarly Tier = "early"
	TierHot   Tier = "hot"
)

// Thresholds are the minimum reaction and distinct-user counts for a tier.
type Thresholds struct {
	Reactions int `yaml:"reactions"`
	Users     int `yaml:"users"`
}

func (t Thresholds) met(h *Hotpost) bool {
	return h.ReactionCount >= t.Reactions && h.UsersCount >= t.Users
}

// Profile is a named pair of threshold sets controlling classifier
// sensitivity, chosen once at process start.
type Profile struct {
	Name  string
	Early Thresholds
	Hot   Thresholds
}

var (
	// Standard is the production profile.
	Standard = Profile{
		Name:  "standard",
		Early: Thresholds{Reactions: 5, Users: 2},
		Hot:   Thresholds{Reactions: 20, Users: 5},
	}

	// Relaxed trips on minimal engagement, for development and testing.
	Relaxed = Profile{
		Name:  "relaxed",
		Early: Thresholds{Reactions: 2, Users: 1},
		Hot:   Thresholds{Reactions: 4, Users: 1},
	}
)

// ProfileByName resolves a profile name from configuration.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", Standard.Name:
		return Standard, nil
	case Relaxed.Name:
		return Relaxed, nil
	default:
		return Profile{}, fmt.Errorf("unknown threshold profile %q (valid: standard, relaxed)", name)
	}
}

// Classifier decides tier transitions for an aggregate.
type Classifier struct {
	profile Profile
}

// NewClassifier creates a classifier with an explicit profile; there is no
// ambient default.
func NewClassifier(profile Profile) *Classifier {
	return &Classifier{profile: profile}
}

// Profile returns the active threshold profile.
func (c *Classifier) Profile() Profile {
	return c.profile
}

// Classify evaluates the aggregate after an event has been applied, latching
// IsHot or IsEarly and returning the transition that fired, if any.
//
// Hot is terminal: once set, nothing is evaluated again. Hot fires even when
// the post never passed Early, and does not set IsEarly retroactively in
// that case. Early is a one-shot notified-at-this-tier latch.
func (c *Classifier) Classify(h *Hotpost) Tier {
	if h.IsHot {
		return TierNone
	}
	if c.profile.Hot.met(h) {
		h.IsHot = true
		return TierHot
	}
	if h.IsEarly {
		return TierNone
	}
	if c.profile.Early.met(h) {
		h.IsEarly = true
		return TierEarly
	}
	return TierNone
}
