package hotpost

// Apply folds one reaction event into the aggregate. It is a pure state
// transition: no I/O, no classification, and UpdatedAt is left to the caller.
func Apply(h *Hotpost, ev ReactionEvent) {
	switch ev.Kind {
	case EventAdded:
		if h.Reactions == nil {
			h.Reactions = make(map[string]int)
		}
		h.Reactions[ev.Reaction]++
		h.ReactionCount = sumReactions(h.Reactions)
		h.Users = addUser(h.Users, ev.User)
		h.UsersCount = len(h.Users)

	case EventRemoved:
		if h.Reactions[ev.Reaction] > 0 {
			h.Reactions[ev.Reaction]--
		}
		if h.Reactions[ev.Reaction] == 0 {
			delete(h.Reactions, ev.Reaction)
		}
		h.ReactionCount = sumReactions(h.Reactions)
		if h.ReactionCount == 0 {
			h.Users = nil
			h.UsersCount = 0
		} else {
			// NOTE: not a correct calculation; the aggregate alone cannot
			// tell whether the user still has another reaction on the post,
			// so the user is removed unconditionally.
			h.Users = removeUser(h.Users, ev.User)
			h.UsersCount = len(h.Users)
		}
	}
}

// sumReactions recomputes the total reaction count from the per-name map.
// ReactionCount is always derived this way, never adjusted independently.
func sumReactions(reactions map[string]int) int {
	total := 0
	for _, n := range reactions {
		total += n
	}
	return total
}

// addUser inserts a user ID preserving set semantics and insertion order.
func addUser(users []string, id string) []string {
	for _, u := range users {
		if u == id {
			return users
		}
	}
	return append(users, id)
}

// removeUser drops all occurrences of a user ID.
func removeUser(users []string, id string) []string {
	out := users[:0]
	for _, u := range users {
		if u != id {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
