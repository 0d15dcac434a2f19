package auth

import (
	"math/rand/v2"
	"regexp"
)

const maxGeneratedUsername = 15

var (
	adjectives = []string{
		"sunny", "quiet", "brave", "lucky", "swift", "fuzzy", "jolly", "mellow",
		"bold", "cosmic", "dizzy", "eager", "fancy", "gentle", "happy", "icy",
		"kind", "lazy", "mighty", "nimble", "odd", "plucky", "quirky", "rapid",
		"shy", "tiny", "urban", "vivid", "wild", "zesty",
	}
	nouns = []string{
		"otter", "falcon", "panda", "walrus", "badger", "comet", "pebble", "maple",
		"tiger", "koala", "lemur", "raven", "bison", "gecko", "heron", "moose",
		"newt", "owl", "puffin", "quokka", "robin", "sloth", "toucan", "yak",
		"zebra", "lynx", "finch", "mango", "cactus", "river",
	}

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,20}$`)
)

// GenerateUsername returns a random "adjective-noun" handle capped at 15 characters.
func GenerateUsername() string {
	name := adjectives[rand.IntN(len(adjectives))] + "-" + nouns[rand.IntN(len(nouns))]
	if len(name) > maxGeneratedUsername {
		name = name[:maxGeneratedUsername]
	}
	return name
}

// ValidUsername reports whether a user-chosen name is 2-20 of [a-zA-Z0-9_-].
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}
