package core

import "strings"

const DefaultIcon = "fas fa-receipt"

type iconRule struct {
	keyword string
	icon    string
}

// Checked in order; first keyword contained in the label wins.
var iconRules = []iconRule{
	{"cleverfit", "fas fa-dumbbell"},
	{"umbau", "fas fa-building"},
	{"magenta", "fas fa-wifi"},
	{"sparkasse savings", "fas fa-euro-sign"},
	{"apple", "fab fa-apple"},
	{"sparkasse expenses", "fas fa-euro-sign"},
	{"drei", "fas fa-mobile-alt"},
	{"kredit", "fas fa-money-bill-wave"},
	{"internet", "fas fa-wifi"},
	{"struja", "fas fa-bolt"},
	{"cistoca", "fas fa-broom"},
	{"zev", "fas fa-building"},
	{"di.fm", "fas fa-music"},
	{"spotify", "fas fa-music"},
	{"mobilni", "fas fa-mobile-alt"},
	{"sparkasse", "fas fa-euro-sign"},
}

// IconFor picks a Font Awesome class for an expense label.
func IconFor(label string) string {
	lower := strings.ToLower(label)
	for _, r := range iconRules {
		if strings.Contains(lower, r.keyword) {
			return r.icon
		}
	}
	return DefaultIcon
}
