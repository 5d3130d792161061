// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package temporal

import "time"

// minDateMatchLength is the shortest a matched phrase may be before it is
// rejected as noise, unless it appears in a language's short-word allow
// list (e.g. "hoy", "ya").
const minDateMatchLength = 4

// weekdays maps a language tag to its weekday names, lowercase, keyed by
// time.Weekday.
var weekdays = map[string]map[time.Weekday]string{
	"es": {
		time.Monday:    "lunes",
		time.Tuesday:   "martes",
		time.Wednesday: "miércoles",
		time.Thursday:  "jueves",
		time.Friday:    "viernes",
		time.Saturday:  "sábado",
		time.Sunday:    "domingo",
	},
	"en": {
		time.Monday:    "monday",
		time.Tuesday:   "tuesday",
		time.Wednesday: "wednesday",
		time.Thursday:  "thursday",
		time.Friday:    "friday",
		time.Saturday:  "saturday",
		time.Sunday:    "sunday",
	},
	"pt": {
		time.Monday:    "segunda-feira",
		time.Tuesday:   "terça-feira",
		time.Wednesday: "quarta-feira",
		time.Thursday:  "quinta-feira",
		time.Friday:    "sexta-feira",
		time.Saturday:  "sábado",
		time.Sunday:    "domingo",
	},
}

// relativeDayWords maps a language to {word: day offset from today}.
var relativeDayWords = map[string]map[string]int{
	"es": {"hoy": 0, "mañana": 1, "ayer": -1, "pasado mañana": 2, "anteayer": -2},
	"en": {"today": 0, "tomorrow": 1, "yesterday": -1},
	"pt": {"hoje": 0, "amanhã": 1, "ontem": -1, "depois de amanhã": 2, "anteontem": -2},
}

// validShortPatterns lists words that are allowed to match even though
// they are shorter than minDateMatchLength.
var validShortPatterns = map[string][]string{
	"es": {"hoy", "ya"},
	"en": {"now"},
	"pt": {"hoje", "já"},
}

// pastModifiersAfter are trailing words that, found immediately after a
// match, indicate the phrase refers to the past (e.g. "lunes pasado").
var pastModifiersAfter = map[string][]string{
	"es": {"pasado", "pasada", "pasados", "pasadas", "anterior", "anteriores", "atrás"},
	"en": {"ago", "back", "earlier", "before", "prior"},
	"pt": {"passado", "passada", "passados", "passadas", "anterior", "atrás"},
}

// pastModifiersBefore are leading words that, found immediately before a
// match, indicate the phrase refers to the past (e.g. "el pasado lunes").
var pastModifiersBefore = map[string][]string{
	"es": {"el pasado", "la pasada", "el anterior", "la anterior"},
	"en": {"last", "previous"},
	"pt": {"o passado", "a passada", "o anterior", "a anterior"},
}

// futureModifiersAfter are trailing words indicating the future.
var futureModifiersAfter = map[string][]string{
	"es": {"que viene", "próximo", "próxima", "entrante"},
	"en": {"next", "coming", "from now"},
	"pt": {"que vem", "próximo", "próxima"},
}

// futureModifiersBefore are leading words indicating the future.
var futureModifiersBefore = map[string][]string{
	"es": {"el próximo", "la próxima", "el siguiente", "la siguiente", "dentro de", "en", "para", "el que viene"},
	"en": {"next", "coming", "in"},
	"pt": {"o próximo", "a próxima", "o seguinte", "a seguinte", "daqui a"},
}

// pastTenseVerbs is a representative (not exhaustive) sample of
// conjugated verb forms whose presence nearby signals a past-tense
// sentence, grouped per language.
var pastTenseVerbs = map[string][]string{
	"es": {
		"fui", "fuiste", "fue", "fuimos", "fueron",
		"pagué", "pagaste", "pagó", "pagamos", "pagaron",
		"hice", "hiciste", "hizo", "hicimos", "hicieron",
		"dije", "dijiste", "dijo", "dijimos", "dijeron",
		"estuve", "estuvo", "estuvimos", "estuvieron",
		"tuve", "tuvo", "tuvimos", "tuvieron",
		"era", "eran", "estaba", "estaban", "tenía", "tenían",
	},
	"en": {
		"was", "were", "paid", "said", "did", "went", "had", "made",
		"called", "asked", "arrived", "left", "finished", "closed",
	},
	"pt": {
		"fui", "foi", "fomos", "foram",
		"paguei", "pagou", "pagamos", "pagaram",
		"fiz", "fez", "fizemos", "fizeram",
		"estava", "estive", "esteve", "tinha", "tive",
	},
}

// futureTenseVerbs mirrors pastTenseVerbs for the future/periphrastic
// future register.
var futureTenseVerbs = map[string][]string{
	"es": {
		"voy a", "vas a", "va a", "vamos a", "van a",
		"pagaré", "pagarás", "pagará", "pagaremos", "pagarán",
		"haré", "harás", "hará", "haremos", "harán",
		"iré", "irás", "irá", "iremos", "irán",
		"tendré", "tendrá", "tendremos", "tendrán",
	},
	"en": {
		"will", "going to", "gonna", "shall", "plan to", "about to",
	},
	"pt": {
		"vou", "vai", "vamos", "vão",
		"pagarei", "pagará", "pagaremos", "pagarão",
		"farei", "fará", "faremos", "farão",
	},
}
