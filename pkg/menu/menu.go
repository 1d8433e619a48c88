// Package menu builds the side navigation tree from role and flags. It is
// computed independently from the route guard on purpose: if a flag flips
// between menu render and navigation the guard stays the final authority,
// and a briefly stale menu entry is an accepted race.
package menu

import "github.com/prakasajudha/farewell-pet/pkg/flags"

// Item is one navigation node.
type Item struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Icon     string `json:"icon,omitempty"`
	Href     string `json:"href,omitempty"`
	IsTitle  bool   `json:"is_title,omitempty"`
	Children []Item `json:"children,omitempty"`
}

// Build is pure and deterministic: same inputs, structurally identical
// output. Ordering is fixed: base items, then the leaderboard entry when its
// flag is on, then the role-gated admin section. Admin receives a superset
// of the semi-admin section. Missing roles or flags omit nodes, never error.
func Build(isAdmin, isSemiAdmin bool, set flags.Set) []Item {
	items := []Item{
		{Key: "fitur-utama", Label: "Fitur Utama", IsTitle: true},
		{Key: "message", Label: "Message", Icon: "messages-square", Href: "/message"},
	}
	if set.Enabled(flags.ShowLeaderBoard) {
		items = append(items, Item{Key: "leaderboard", Label: "Leaderboard", Icon: "trophy", Href: "/leaderboard"})
	}
	if isAdmin || isSemiAdmin {
		items = append(items,
			Item{Key: "admin", Label: "Admin", IsTitle: true},
			Item{Key: "favorites", Label: "Favorite Messages", Icon: "star", Href: "/message/list-favorite"},
		)
	}
	if isAdmin {
		items = append(items,
			Item{Key: "settings", Label: "Settings", Icon: "settings", Href: "/settings"},
			Item{Key: "register-user", Label: "Register User", Icon: "user-plus", Href: "/register-user"},
		)
	}
	return items
}
