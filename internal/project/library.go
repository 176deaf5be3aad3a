package project

import "strings"

var library = []LibraryAvatar{
	{ID: "sarah", Name: "Sarah", URL: "https://images.unsplash.com/photo-1494790108377-be9c29b29330?w=512&fm=png"},
	{ID: "james", Name: "James", URL: "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=512&fm=png"},
	{ID: "maya", Name: "Maya", URL: "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=512&fm=png"},
	{ID: "david", Name: "David", URL: "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=512&fm=png"},
	{ID: "elena", Name: "Elena", URL: "https://images.unsplash.com/photo-1544005313-94ddf0286df2?w=512&fm=png"},
	{ID: "marcus", Name: "Marcus", URL: "https://images.unsplash.com/photo-1500648767791-00dcc994a43e?w=512&fm=png"},
}

// Library returns a copy of the built-in stock avatars.
func Library() []LibraryAvatar {
	out := make([]LibraryAvatar, len(library))
	copy(out, library)
	return out
}

// LookupLibraryAvatar finds a stock avatar by id or name, case-insensitively.
func LookupLibraryAvatar(key string) (LibraryAvatar, bool) {
	key = strings.TrimSpace(key)
	for _, a := range library {
		if strings.EqualFold(a.ID, key) || strings.EqualFold(a.Name, key) {
			return a, true
		}
	}
	return LibraryAvatar{}, false
}
