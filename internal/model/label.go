package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// EventType is the buff kind of an event. Values outside the known set are
// kept as-is and labeled by title-casing the tag.
type EventType string

const (
	TypeDoubleXP               EventType = "double_xp"
	TypeTripleXP               EventType = "triple_xp"
	TypeQuadrupleXP            EventType = "quadruple_xp"
	TypeDoubleAetherShards     EventType = "double_aether_shards"
	TypeDoubleQuestPoints      EventType = "double_quest_points"
	TypeDoubleRandomEncounters EventType = "double_random_encounters"
	TypeQuadrupleDropChance    EventType = "quadruple_drop_chance"
	TypeTripleDropChance       EventType = "triple_drop_chance"
	TypeDoubleDropChance       EventType = "double_drop_chance"
)

var typeLabels = map[EventType]string{
	TypeDoubleXP:               "Double XP",
	TypeTripleXP:               "Triple XP",
	TypeQuadrupleXP:            "Quadruple XP",
	TypeDoubleAetherShards:     "Double Shards",
	TypeDoubleQuestPoints:      "Double QP",
	TypeDoubleRandomEncounters: "Double Encounter",
	TypeQuadrupleDropChance:    "Quadruple Drops",
	TypeTripleDropChance:       "Triple Drops",
	TypeDoubleDropChance:       "Double Drops",
}

// Known reports whether t is one of the recognized buff kinds.
func (t EventType) Known() bool {
	_, ok := typeLabels[t]
	return ok
}

// Label returns the display label for t. An empty type is labeled "Event".
func (t EventType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	if t == "" {
		return "Event"
	}
	return titleWords(strings.ReplaceAll(string(t), "_", " "))
}

// titleWords upper-cases the first letter of every word, where a word is a
// run of letters and digits. The rest of each word is left untouched.
func titleWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if isWord && !inWord {
			r = unicode.ToUpper(r)
		}
		inWord = isWord
		b.WriteRune(r)
	}
	return b.String()
}
