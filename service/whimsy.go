package service

import (
	"math/rand/v2"
	"strings"
)

// WhimsyKind identifies which canned-reply set a question matched
type WhimsyKind string

const (
	WhimsyNone    WhimsyKind = ""
	WhimsyCreator WhimsyKind = "creator"
	WhimsyFantasy WhimsyKind = "fantasy"
)

var creatorKeywords = []string{
	"creator",
	"developer",
	"who made you",
	"who built you",
	"how were you made",
	"who created you",
	"who designed you",
	"who programmed you",
}

var fantasyKeywords = []string{
	"dragon", "castle", "wizard", "unicorn", "fairy", "goblin", "elf", "moat", "magic",
}

var creatorReplies = []string{
	"My creator was a combination of code, governing documents, and the hard work of your community members working for you.",
	"Created by your fellow HOA members to make your life easier.",
	"Built by your community to help you navigate your governing documents.",
	"Developed by your HOA members to make your life simpler.",
	"I was created by your fellow community members to provide you with an easy-to-use tool to search your governing documents.",
}

var fantasyReplies = []string{
	"Dragons? I guard HOA secrets like a scaly beast, but I can’t help with fire-breathing dragons. Try fences instead!",
	"Ah, dragons and castles! Sadly I handle covenants, not quests. Ask me about sheds!",
	"If you see a wizard in your yard, call the ARC, or maybe just me. 🧙‍♂️",
}

// MatchWhimsy reports whether question should get a canned reply instead of
// a retrieval-backed answer. Matching is a case-insensitive substring test,
// creator keywords first. The returned slice is a copy.
func MatchWhimsy(question string) (WhimsyKind, []string) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return WhimsyNone, nil
	}
	if containsAny(q, creatorKeywords) {
		return WhimsyCreator, append([]string(nil), creatorReplies...)
	}
	if containsAny(q, fantasyKeywords) {
		return WhimsyFantasy, append([]string(nil), fantasyReplies...)
	}
	return WhimsyNone, nil
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Picker chooses an index in [0, n)
type Picker interface {
	Intn(n int) int
}

// PickerFunc adapts a function to Picker
type PickerFunc func(n int) int

func (f PickerFunc) Intn(n int) int { return f(n) }

// randomPicker uses the global math/rand source, which is safe for concurrent use
var randomPicker Picker = PickerFunc(rand.IntN)

func pick(p Picker, replies []string) string {
	if len(replies) == 0 {
		return ""
	}
	i := p.Intn(len(replies))
	if i < 0 || i >= len(replies) {
		i = 0
	}
	return replies[i]
}
