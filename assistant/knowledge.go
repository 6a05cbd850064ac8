package assistant

import (
	"strings"
)

type entry struct {
	key    string
	answer string
}

// KnowledgeBase answers questions from fixed tables, first matching key wins.
type KnowledgeBase struct {
	mechanics []entry
	general   []entry
}

func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		mechanics: []entry{
			{"carburetor", "A carburetor is a device that mixes air and fuel in the right proportions for internal combustion."},
			{"electronic injection", "Electronic fuel injection controls the amount of fuel injected into the engine electronically, optimizing combustion."},
			{"injection", "Electronic fuel injection controls the amount of fuel injected into the engine electronically, optimizing combustion."},
		},
		general: []entry{
			{"operating temperature", "The ideal operating temperature varies, but it usually sits between 90°C and 105°C."},
		},
	}
}

func (kb *KnowledgeBase) QueryMechanics(query string) string {
	if answer, ok := lookup(kb.mechanics, query); ok {
		return answer
	}
	return "I could not find specific mechanics information for this question."
}

func (kb *KnowledgeBase) QueryGeneral(query string) string {
	if answer, ok := lookup(kb.general, query); ok {
		return answer
	}
	return "I could not find general information for this question."
}

func (kb *KnowledgeBase) HasGeneral(query string) bool {
	_, ok := lookup(kb.general, query)
	return ok
}

func lookup(entries []entry, query string) (string, bool) {
	query = strings.ToLower(query)
	for _, e := range entries {
		if strings.Contains(query, e.key) {
			return e.answer, true
		}
	}
	return "", false
}
