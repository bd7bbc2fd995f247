// Package names generates the random display names handed to anonymous
// viewers when they first connect.
package names

import "math/rand/v2"

var firstNames = []string{
	"Ada", "Alan", "Barbara", "Claude", "Donald", "Edsger", "Frances",
	"Grace", "Hedy", "John", "Katherine", "Ken", "Leslie", "Margaret",
	"Niklaus", "Radia", "Rob", "Sophie", "Tim", "Vera",
}

var lastNames = []string{
	"Antonelli", "Babbage", "Dijkstra", "Hamilton", "Hopper", "Jackson",
	"Kay", "Kernighan", "Lamarr", "Lamport", "Liskov", "Lovelace",
	"McCarthy", "Perlman", "Pike", "Ritchie", "Shannon", "Thompson",
	"Turing", "Wilkes",
}

// Random returns a plausible "First Last" display name. Collisions across
// viewers are acceptable: the name is cosmetic, not an identifier.
func Random() string {
	return firstNames[rand.IntN(len(firstNames))] + " " + lastNames[rand.IntN(len(lastNames))]
}
