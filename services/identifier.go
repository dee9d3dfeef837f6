package services

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const fallbackSlug = "guest"

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// fallbackSource backs NewID when the system entropy source is unavailable.
var fallbackSource = struct {
	sync.Mutex
	r *rand.Rand
}{r: rand.New(rand.NewSource(time.Now().UnixNano()))}

// NewID returns a random invitee id. It never panics: if the system entropy
// source fails it draws from a time-seeded PRNG instead.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	fallbackSource.Lock()
	id, err = uuid.NewRandomFromReader(fallbackSource.r)
	fallbackSource.Unlock()
	if err == nil {
		return id.String()
	}
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

// Slugify lower-cases name, collapses every run of characters outside
// [a-z0-9] into one hyphen and trims hyphens from both ends.
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// UniqueSlug returns candidate if it is not taken, otherwise the first free
// candidate-N for N = 1, 2, ... Callers allocating a batch must add each
// result to taken before resolving the next entry.
func UniqueSlug(candidate string, taken map[string]struct{}) string {
	if _, ok := taken[candidate]; !ok {
		return candidate
	}
	for n := 1; ; n++ {
		slug := candidate + "-" + strconv.Itoa(n)
		if _, ok := taken[slug]; !ok {
			return slug
		}
	}
}
